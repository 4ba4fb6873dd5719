package collab

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/refboard/refboard/internal/document"
	"github.com/refboard/refboard/internal/engine"
)

var (
	ErrBoardNotFound  = fmt.Errorf("board not found: %w", fs.ErrNotExist)
	ErrInvalidBoardID = errors.New("invalid board id")
	ErrHubStopped     = errors.New("hub stopped")
	ErrBoardInUse     = errors.New("board has connected clients")
)

var boardIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func ValidBoardID(id string) bool { return boardIDPattern.MatchString(id) }

// Room is one open board and the clients editing it. The scene and camera
// are shared; every client drives its own gesture state.
type Room struct {
	boardID     string
	path        string
	engine      *engine.Engine
	clients     map[string]*Client            // clientID -> client
	controllers map[string]*engine.Controller // clientID -> input controller
	presence    *PresenceManager
}

// resetGestures drops every client's gesture, for when the items change
// underneath them.
func (r *Room) resetGestures() {
	for _, c := range r.controllers {
		c.Reset()
	}
}

type envelope struct {
	client *Client
	msg    *Message
}

// Hub owns every open board. All board state is touched only by the Run
// goroutine, so input from all clients is applied in delivery order.
type Hub struct {
	boardDir string
	opts     engine.Options
	rooms    map[string]*Room // boardID -> room

	register   chan *Client
	unregister chan *Client
	inbox      chan envelope
	calls      chan func()
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub(boardDir string, opts engine.Options) *Hub {
	return &Hub{
		boardDir:   boardDir,
		opts:       opts,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan envelope),
		calls:      make(chan func()),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case env := <-h.inbox:
			h.handleMessage(env.client, env.msg)
		case fn := <-h.calls:
			fn()
		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

// Stop saves every modified board and waits for Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) deliver(client *Client, msg *Message) bool {
	select {
	case h.inbox <- envelope{client, msg}:
		return true
	case <-h.done:
		return false
	}
}

// call runs fn on the hub goroutine and waits for it.
func (h *Hub) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case h.calls <- func() { defer close(finished); fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}
	<-finished
	return nil
}

func (h *Hub) boardPath(boardID string) string {
	return filepath.Join(h.boardDir, boardID+document.ExtBoard)
}

// openRoom returns the room for boardID, loading the board file on first use.
// A missing file opens an empty board; an unreadable one is an error.
func (h *Hub) openRoom(boardID string) (*Room, error) {
	if room, ok := h.rooms[boardID]; ok {
		return room, nil
	}
	if !ValidBoardID(boardID) {
		return nil, ErrInvalidBoardID
	}

	room := &Room{
		boardID:  boardID,
		path:     h.boardPath(boardID),
		engine:   engine.NewEngine(h.opts),
		clients:     make(map[string]*Client),
		controllers: make(map[string]*engine.Controller),
		presence:    NewPresenceManager(),
	}
	if _, err := os.Stat(room.path); err == nil {
		if err := room.engine.LoadBoardFrom(room.path); err != nil {
			return nil, err
		}
	}
	h.rooms[boardID] = room
	slog.Info("board opened", "board", boardID, "images", room.engine.Scene().Len())
	return room, nil
}

// releaseRoom closes a room nobody is connected to, saving it first.
func (h *Hub) releaseRoom(room *Room) {
	if len(room.clients) > 0 {
		return
	}
	if err := h.saveRoom(room, false); err != nil {
		// Keep the room so the edits are not lost.
		return
	}
	delete(h.rooms, room.boardID)
	slog.Info("board closed", "board", room.boardID)
}

func (h *Hub) saveRoom(room *Room, force bool) error {
	if !force && !room.engine.Modified() {
		return nil
	}
	if err := os.MkdirAll(h.boardDir, 0o755); err != nil {
		slog.Error("create board dir", "dir", h.boardDir, "error", err)
		return err
	}
	return room.engine.SaveBoardTo(room.path)
}

func (h *Hub) closeAll() {
	for id, room := range h.rooms {
		h.saveRoom(room, false)
		for _, c := range room.clients {
			close(c.send)
		}
		delete(h.rooms, id)
	}
}

func (h *Hub) addClient(client *Client) {
	room, err := h.openRoom(client.BoardID)
	if err != nil {
		slog.Warn("open board", "board", client.BoardID, "error", err)
		client.Send(newMessage(TypeError, ErrorPayload{Message: err.Error()}))
		close(client.send)
		return
	}
	room.clients[client.ClientID] = client
	room.controllers[client.ClientID] = room.engine.NewController()
	p := room.presence.Join(client.ClientID, client.Name)

	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		BoardID:  room.boardID,
		State:    room.engine.State(),
	}))
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}
	client.Send(renderMessage(room, client.ClientID, room.engine.Render(h.roomControllers(room)...)))

	h.broadcastToRoom(room, newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID: client.ClientID,
		Name:     p.Name,
		Color:    p.Color,
	}), client.ClientID)

	slog.Info("client joined", "client", client.ClientID, "board", room.boardID)
}

func (h *Hub) removeClient(client *Client) {
	room, ok := h.rooms[client.BoardID]
	if !ok {
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		return
	}

	delete(room.clients, client.ClientID)
	delete(room.controllers, client.ClientID)
	close(client.send)
	room.presence.Remove(client.ClientID)

	h.broadcastToRoom(room, newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID}), "")
	slog.Info("client left", "client", client.ClientID, "board", room.boardID)

	h.releaseRoom(room)
}

func (h *Hub) broadcastToRoom(room *Room, msg *Message, excludeClientID string) {
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func (h *Hub) roomControllers(room *Room) []*engine.Controller {
	ctrls := make([]*engine.Controller, 0, len(room.controllers))
	for _, c := range room.controllers {
		ctrls = append(ctrls, c)
	}
	return ctrls
}

// broadcastRender sends every client the shared draw list with its own
// gesture mode and cursor.
func (h *Hub) broadcastRender(room *Room) {
	commands := room.engine.Render(h.roomControllers(room)...)
	for id, c := range room.clients {
		c.Send(renderMessage(room, id, commands))
	}
}

func renderMessage(room *Room, clientID string, commands []engine.DrawCommand) *Message {
	state := room.engine.State()
	if ctrl, ok := room.controllers[clientID]; ok {
		state = room.engine.StateFor(ctrl)
	}
	return newMessage(TypeRender, RenderPayload{State: state, Commands: commands})
}

// --- Synchronous access for HTTP handlers ---

// ImportImage adds encoded image bytes centered on scene point (x, y).
// Boards without connected clients are saved immediately.
func (h *Hub) ImportImage(ctx context.Context, boardID string, data []byte, x, y float64) (string, error) {
	var handle engine.Handle
	var err error
	callErr := h.call(ctx, func() {
		var room *Room
		if room, err = h.openRoom(boardID); err != nil {
			return
		}
		if handle, err = room.engine.AddImageFromBytes(data, x, y, 1); err != nil {
			h.releaseRoom(room)
			return
		}
		h.broadcastRender(room)
		h.releaseRoom(room)
	})
	if callErr != nil {
		return "", callErr
	}
	return string(handle), err
}

// Snapshot returns the board's images in z-order. Open boards are read from
// memory, including unsaved edits.
func (h *Hub) Snapshot(ctx context.Context, boardID string) ([]document.Image, error) {
	var images []document.Image
	var err error
	callErr := h.call(ctx, func() {
		if room, ok := h.rooms[boardID]; ok {
			images = room.engine.Records()
			return
		}
		if !ValidBoardID(boardID) {
			err = ErrBoardNotFound
			return
		}
		var board *document.Board
		board, err = document.ReadFile(h.boardPath(boardID))
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrBoardNotFound
			return
		}
		if err == nil {
			images = board.Images
		}
	})
	if callErr != nil {
		return nil, callErr
	}
	return images, err
}

// ImageData returns the stored bytes and format of one item.
func (h *Hub) ImageData(ctx context.Context, boardID, imageID string) ([]byte, string, error) {
	var data []byte
	var format string
	var err error
	callErr := h.call(ctx, func() {
		var room *Room
		if room, err = h.openRoom(boardID); err != nil {
			return
		}
		defer h.releaseRoom(room)
		item, ok := room.engine.Scene().Item(engine.Handle(imageID))
		if !ok {
			err = engine.ErrNoSuchItem
			return
		}
		data, format = item.ImageData(), item.Format()
	})
	if callErr != nil {
		return nil, "", callErr
	}
	return data, format, err
}

// BoardInfo describes a board known to the hub.
type BoardInfo struct {
	ID      string `json:"id"`
	Open    bool   `json:"open"`
	Clients int    `json:"clients"`
}

// Boards lists saved and open boards sorted by id.
func (h *Hub) Boards(ctx context.Context) ([]BoardInfo, error) {
	var boards []BoardInfo
	var err error
	callErr := h.call(ctx, func() {
		seen := make(map[string]bool)
		for id, room := range h.rooms {
			seen[id] = true
			boards = append(boards, BoardInfo{ID: id, Open: true, Clients: len(room.clients)})
		}
		var entries []os.DirEntry
		entries, err = os.ReadDir(h.boardDir)
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
		for _, e := range entries {
			id, ok := strings.CutSuffix(e.Name(), document.ExtBoard)
			if !ok || e.IsDir() || seen[id] || !ValidBoardID(id) {
				continue
			}
			boards = append(boards, BoardInfo{ID: id})
		}
	})
	if callErr != nil {
		return nil, callErr
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })
	return boards, err
}

// DeleteBoard removes a saved board. Boards with connected clients are left
// alone and report ErrBoardInUse.
func (h *Hub) DeleteBoard(ctx context.Context, boardID string) error {
	var err error
	callErr := h.call(ctx, func() {
		if !ValidBoardID(boardID) {
			err = ErrBoardNotFound
			return
		}
		room, open := h.rooms[boardID]
		if open && len(room.clients) > 0 {
			err = ErrBoardInUse
			return
		}
		delete(h.rooms, boardID)

		err = os.Remove(h.boardPath(boardID))
		switch {
		case errors.Is(err, fs.ErrNotExist) && open:
			err = nil
		case errors.Is(err, fs.ErrNotExist):
			err = ErrBoardNotFound
		case err == nil:
			slog.Info("board deleted", "board", boardID)
		}
	})
	if callErr != nil {
		return callErr
	}
	return err
}
