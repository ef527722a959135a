package main

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type gameState string

const (
	stateOpen    gameState = "open"
	statePrompts gameState = "prompts"
	stateDrawing gameState = "drawing"
	stateOver    gameState = "over"
)

// Player holds per-participant state. The client is a back-reference; the
// transport layer owns the connection and its lifecycle.
type Player struct {
	name    string
	score   int
	prompts []Prompt
	client  *Client
}

// Room is one game session. The players slice preserves join order, which
// determines admin succession and all first-N selections.
type Room struct {
	id         string
	players    []*Player
	state      gameState
	roundNum   int
	rounds     int
	promptsPP  int
	drawer     string
	prompt     *Prompt
	admin      string
	createdAt  time.Time
	lastActive time.Time
}

func newRoom(id string) *Room {
	now := time.Now()
	return &Room{
		id:         id,
		state:      stateOpen,
		roundNum:   -1,
		createdAt:  now,
		lastActive: now,
	}
}

func (room *Room) player(name string) *Player {
	for _, p := range room.players {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (room *Room) names() []string {
	names := make([]string, 0, len(room.players))
	for _, p := range room.players {
		names = append(names, p.name)
	}
	return names
}

func (room *Room) broadcast(msg Message) {
	for _, p := range room.players {
		p.client.trySend(msg)
	}
}

func (room *Room) broadcastExcept(name string, msg Message) {
	for _, p := range room.players {
		if p.name == name {
			continue
		}
		p.client.trySend(msg)
	}
}

func (room *Room) touch() {
	room.lastActive = time.Now()
}

// selectDrawer picks the player holding the fewest remaining prompts, ties
// broken by join order. Recomputed at the start of every round so that
// prompt-rich players are depleted last.
func (room *Room) selectDrawer() *Player {
	var drawer *Player
	for _, p := range room.players {
		if drawer == nil || len(p.prompts) < len(drawer.prompts) {
			drawer = p
		}
	}
	return drawer
}

// collectChoices removes one prompt, picked uniformly at random, from every
// non-drawer player who still has one, and returns the shuffled collection.
// A result shorter than players-1 means someone ran dry, which is the
// round-resolution signal to end the game.
func (room *Room) collectChoices() []Prompt {
	choices := make([]Prompt, 0, len(room.players))
	for _, p := range room.players {
		if p.name == room.drawer || len(p.prompts) == 0 {
			continue
		}
		i := rand.Intn(len(p.prompts))
		choices = append(choices, p.prompts[i])
		p.prompts = append(p.prompts[:i], p.prompts[i+1:]...)
	}

	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	return choices
}

func (room *Room) leaderboard() []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(room.players))
	for _, p := range room.players {
		entries = append(entries, LeaderboardEntry{Name: p.name, Score: p.score})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	return entries
}

// promptsPerPlayer derives the per-player prompt quota so that, across the
// whole game, non-drawing players contribute roughly one prompt per round the
// drawer needs. An exact quotient gets one extra so a drawer never runs out
// mid-game.
func promptsPerPlayer(rounds, players int) int {
	raw := rounds * (players - 1)
	pp := (raw + players - 1) / players
	if raw%players == 0 {
		pp++
	}
	return pp
}

// Registry owns every live room. Its mutex serializes all message handlers,
// disconnect handling, timer callbacks, and the reaper, so handlers are
// atomic with respect to each other.
type Registry struct {
	mu    sync.Mutex
	cfg   *Config
	rooms map[string]*Room
}

func newRegistry(cfg *Config) *Registry {
	reg := &Registry{
		cfg:   cfg,
		rooms: make(map[string]*Room),
	}
	if cfg.sessionTimeout > 0 {
		go reg.reaperLoop()
	}
	return reg
}

// createLocked generates a fresh room in the open state under a
// collision-checked id. Assumes reg.mu is held.
func (reg *Registry) createLocked() *Room {
	var id string
	for {
		id = uuid.NewString()
		if _, exists := reg.rooms[id]; !exists {
			break
		}
	}

	room := newRoom(id)
	reg.rooms[id] = room

	return room
}

func (reg *Registry) removeLocked(id string) {
	delete(reg.rooms, id)
}

// reaperLoop periodically closes the connections of rooms that have been
// idle longer than the session timeout; normal disconnect cleanup then
// removes the players and finally the room itself.
func (reg *Registry) reaperLoop() {
	ticker := time.NewTicker(reg.cfg.sessionTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-reg.cfg.sessionTimeout)

		stale := []*Client{}

		reg.mu.Lock()
		for id, room := range reg.rooms {
			if room.lastActive.Before(cutoff) {
				logf(reg.cfg, "GAMES: Reaping idle game %s", id)
				for _, p := range room.players {
					p.client.dropLocked()
					stale = append(stale, p.client)
				}
			}
		}
		reg.mu.Unlock()

		// Closing the connections drives normal disconnect cleanup, which
		// removes the players and then the room itself.
		for _, c := range stale {
			c.closeWithCode(websocket.CloseGoingAway, "session timed out")
		}
	}
}
