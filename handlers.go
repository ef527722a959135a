package main

import (
	"encoding/json"
	"time"
)

// dispatch decodes one inbound frame and routes it to its handler. The whole
// switch runs under the registry lock, so handlers never interleave. Unknown
// actions and malformed payloads are dropped, as are all wrong-state and
// wrong-role requests inside the handlers; a stale client cannot probe game
// state through error content.
func (reg *Registry) dispatch(c *Client, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	switch env.Action {
	case actionJoin:
		var data JoinData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handleJoin(c, data)
		}
	case actionStart:
		var data StartData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handleStart(c, data)
		}
	case actionPrompt:
		var data PromptData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handlePrompt(c, data)
		}
	case actionChoosePrompt:
		var data ChoosePromptData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handleChoosePrompt(c, data)
		}
	case actionDraw:
		var data DrawData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handleDraw(c, data)
		}
	case actionGuess:
		var data GuessData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handleGuess(c, data)
		}
	case actionHint:
		var data HintData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handleHint(c, data)
		}
	case actionSelectWinner:
		var data SelectWinnerData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handleSelectWinner(c, data)
		}
	case actionPlayAgain:
		var data PlayAgainData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handlePlayAgain(c, data)
		}
	case actionKick:
		var data KickData
		if json.Unmarshal(env.Data, &data) == nil {
			reg.handleKick(c, data)
		}
	}
}

// playerJoinLocked registers the player, tells everyone else, then sends the
// joiner the full roster.
func (reg *Registry) playerJoinLocked(room *Room, name string, c *Client) {
	c.gameID = room.id
	c.playerName = name

	room.players = append(room.players, &Player{name: name, client: c})
	room.touch()

	room.broadcastExcept(name, Message{
		Action: eventJoin,
		Data:   JoinNoticeData{Name: name},
	})

	c.trySend(Message{
		Action: eventJoinSuccess,
		Data: JoinSuccessData{
			Players: room.names(),
			Admin:   room.admin,
			GameID:  room.id,
		},
	})

	logf(reg.cfg, "GAMES: Player %q joined %s", name, room.id)
}

func (reg *Registry) handleJoin(c *Client, data JoinData) {
	if data.Name == "" || c.gameID != "" {
		return
	}

	if data.GameID == createGameID {
		room := reg.createLocked()
		room.admin = data.Name
		logf(reg.cfg, "GAMES: Created game %s", room.id)
		reg.playerJoinLocked(room, data.Name, c)
		return
	}

	room, ok := reg.rooms[data.GameID]
	if !ok {
		c.rejectLocked(closeGameNotFound)
		return
	}

	if room.state != stateOpen {
		c.rejectLocked(closeGameInProgress)
		return
	}

	if room.player(data.Name) != nil {
		c.rejectLocked(closeNameTaken)
		return
	}

	reg.playerJoinLocked(room, data.Name, c)
}

func (reg *Registry) handleStart(c *Client, data StartData) {
	room, ok := reg.rooms[data.GameID]
	if !ok || room.admin != data.Name || room.state != stateOpen || data.Rounds < 1 {
		return
	}
	room.touch()

	if len(room.players) < 3 {
		c.trySend(Message{
			Action: eventError,
			Data:   ErrorData{Error: "Need 3 or more players."},
		})
		return
	}

	room.rounds = data.Rounds
	room.promptsPP = promptsPerPlayer(data.Rounds, len(room.players))
	room.state = statePrompts

	room.broadcast(Message{
		Action: eventStart,
		Data:   StartNoticeData{PromptsPP: room.promptsPP},
	})

	logf(reg.cfg, "GAMES: Game %s started with %d rounds, %d prompts per player",
		room.id, room.rounds, room.promptsPP)

	// The countdown outlives this handler and may fire into a room that has
	// already moved on or been deleted; both callbacks re-check.
	countdown(time.Second, int(reg.cfg.promptTime/time.Second),
		func(remaining int) { reg.promptTick(data.GameID, remaining) },
		func() { reg.promptsDone(data.GameID) },
	)
}

func (reg *Registry) promptTick(gameID string, remaining int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[gameID]
	if !ok || room.state != statePrompts {
		return
	}

	room.broadcast(Message{
		Action: eventTimeRemaining,
		Data:   TimeRemainingData{TimeRemaining: remaining},
	})
}

// promptsDone forces the prompts phase over when the countdown elapses
// before every quota is met; players contribute whatever they have.
func (reg *Registry) promptsDone(gameID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[gameID]
	if !ok || room.state != statePrompts {
		return
	}

	reg.beginDrawingLocked(room)
}

// beginDrawingLocked is the single prompts->drawing transition: round one,
// drawer selection, and the drawer's private choice list.
func (reg *Registry) beginDrawingLocked(room *Room) {
	room.state = stateDrawing
	room.roundNum = 1

	drawer := room.selectDrawer()
	room.drawer = drawer.name

	room.broadcast(Message{
		Action: eventNewRound,
		Data:   NewRoundData{Drawer: room.drawer, RoundNum: room.roundNum},
	})

	choices := room.collectChoices()
	drawer.client.trySend(Message{
		Action: eventChoices,
		Data:   ChoicesData{Choices: choices},
	})

	logf(reg.cfg, "GAMES: Game %s entered drawing phase, drawer %q", room.id, room.drawer)
}

func (reg *Registry) handlePrompt(c *Client, data PromptData) {
	room, ok := reg.rooms[data.GameID]
	if !ok || room.state != statePrompts {
		return
	}

	player := room.player(data.Name)
	if player == nil {
		return
	}
	room.touch()

	if len(player.prompts) >= room.promptsPP {
		c.trySend(Message{
			Action: eventError,
			Data:   ErrorData{Error: "You have already submitted enough prompts."},
		})
		return
	}

	player.prompts = append(player.prompts, Prompt{Text: data.Prompt, Author: data.Name})

	c.trySend(Message{
		Action: eventPromptSuccess,
		Data:   PromptSuccessData{Prompt: data.Prompt},
	})

	for _, p := range room.players {
		if len(p.prompts) < room.promptsPP {
			return
		}
	}

	// Everyone has met the quota; no need to wait out the countdown.
	reg.beginDrawingLocked(room)
}

func (reg *Registry) handleChoosePrompt(c *Client, data ChoosePromptData) {
	room, ok := reg.rooms[data.GameID]
	if !ok || room.state != stateDrawing || room.drawer != data.Name || room.player(data.Name) == nil {
		return
	}
	room.touch()

	prompt := data.Prompt
	room.prompt = &prompt

	// The signal clients use to reveal the canvas.
	room.broadcast(Message{
		Action: eventDrawerChosen,
		Data:   struct{}{},
	})
}

// handleDraw relays the drawing payload verbatim to everyone but the drawer.
// The pixel buffer is an opaque blob; the server never inspects it.
func (reg *Registry) handleDraw(c *Client, data DrawData) {
	room, ok := reg.rooms[data.GameID]
	if !ok || room.state != stateDrawing || room.drawer != data.Name || room.player(data.Name) == nil {
		return
	}
	room.touch()

	room.broadcastExcept(data.Name, Message{
		Action: eventDraw,
		Data: DrawNoticeData{
			Width:  data.Width,
			Height: data.Height,
			Pixels: data.Pixels,
		},
	})
}

// handleGuess relays a guess privately to the drawer only, which is what
// lets the drawer alone pick a winner.
func (reg *Registry) handleGuess(c *Client, data GuessData) {
	room, ok := reg.rooms[data.GameID]
	if !ok || room.state != stateDrawing || room.drawer == data.Name || room.player(data.Name) == nil {
		return
	}
	room.touch()

	drawer := room.player(room.drawer)
	if drawer == nil {
		return
	}

	drawer.client.trySend(Message{
		Action: eventGuess,
		Data:   GuessNoticeData{Name: data.Name, Guess: data.Guess},
	})
}

func (reg *Registry) handleHint(c *Client, data HintData) {
	room, ok := reg.rooms[data.GameID]
	if !ok || room.state != stateDrawing || room.drawer != data.Name || room.player(data.Name) == nil {
		return
	}
	room.touch()

	room.broadcastExcept(data.Name, Message{
		Action: eventHint,
		Data:   HintNoticeData{Guess: data.Guess, Type: data.Type},
	})
}

func (reg *Registry) handleSelectWinner(c *Client, data SelectWinnerData) {
	room, ok := reg.rooms[data.GameID]
	if !ok || room.state != stateDrawing || room.drawer != data.Name || room.prompt == nil {
		return
	}

	winner := room.player(data.Winner)
	if winner == nil || room.player(data.Name) == nil {
		return
	}
	room.touch()

	oldPrompt := *room.prompt
	winner.score++

	// The author scores too, unless they already left the game.
	authorScore := 0
	if author := room.player(oldPrompt.Author); author != nil {
		author.score++
		authorScore = author.score
	}

	room.prompt = nil
	room.roundNum++

	drawer := room.selectDrawer()
	room.drawer = drawer.name

	choices := room.collectChoices()
	over := len(choices) < len(room.players)-1 || room.roundNum > room.rounds

	room.broadcast(Message{
		Action: eventEndRound,
		Data: EndRoundData{
			RoundNum:          room.roundNum,
			Drawer:            room.drawer,
			PromptAuthor:      oldPrompt.Author,
			Winner:            data.Winner,
			PromptAuthorScore: authorScore,
			WinnerScore:       winner.score,
			Guess:             data.Guess,
			OldPrompt:         oldPrompt.Text,
			Over:              over,
		},
	})

	if over {
		reg.endGameLocked(room)
		return
	}

	drawer.client.trySend(Message{
		Action: eventChoices,
		Data:   ChoicesData{Choices: choices},
	})
}

func (reg *Registry) endGameLocked(room *Room) {
	room.state = stateOver

	room.broadcast(Message{
		Action: eventGameOver,
		Data:   GameOverData{Leaderboard: room.leaderboard()},
	})

	logf(reg.cfg, "GAMES: Game %s over after %d rounds", room.id, room.roundNum-1)
}

func (reg *Registry) handlePlayAgain(c *Client, data PlayAgainData) {
	room, ok := reg.rooms[data.GameID]
	if !ok || room.admin != data.Name || room.state != stateOver {
		return
	}
	room.touch()

	for _, p := range room.players {
		p.score = 0
		p.prompts = nil
	}
	room.roundNum = -1
	room.drawer = ""
	room.prompt = nil
	room.state = stateOpen

	roster := JoinSuccessData{
		Players: room.names(),
		Admin:   room.admin,
		GameID:  room.id,
	}
	room.broadcast(Message{
		Action: eventJoinSuccess,
		Data:   roster,
	})

	logf(reg.cfg, "GAMES: Game %s reset for another game", room.id)
}

func (reg *Registry) handleKick(c *Client, data KickData) {
	room, ok := reg.rooms[data.GameID]
	if !ok || room.admin != data.Name || room.state != stateOpen || data.Target == data.Name {
		return
	}

	target := room.player(data.Target)
	if target == nil {
		return
	}
	room.touch()

	// Unbind before closing so the eventual connection-close event is a
	// no-op instead of a second removal.
	target.client.gameID = ""
	target.client.playerName = ""
	target.client.rejectLocked(closeKicked)

	reg.removePlayerLocked(room, data.Target)

	logf(reg.cfg, "GAMES: Player %q kicked from %s", data.Target, room.id)
}

// disconnect handles any connection close, whatever the cause. Unbound
// connections and already-removed players fall through silently.
func (reg *Registry) disconnect(c *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	c.dropLocked()

	if c.gameID == "" {
		return
	}

	room, ok := reg.rooms[c.gameID]
	if !ok {
		return
	}

	player := room.player(c.playerName)
	if player == nil || player.client != c {
		return
	}

	logf(reg.cfg, "GAMES: Player %q left %s", c.playerName, room.id)

	reg.removePlayerLocked(room, c.playerName)
}

// removePlayerLocked takes a player out of the room, reassigns vacated
// roles, and notifies the remainder. The room dies with its last player.
func (reg *Registry) removePlayerLocked(room *Room, name string) {
	dst := room.players[:0]
	for _, p := range room.players {
		if p.name == name {
			continue
		}
		dst = append(dst, p)
	}
	room.players = dst

	if len(room.players) == 0 {
		reg.removeLocked(room.id)
		logf(reg.cfg, "GAMES: Removed empty game %s", room.id)
		return
	}
	room.touch()

	if room.admin == name {
		room.admin = room.players[0].name
	}

	wasDrawer := room.drawer == name
	if wasDrawer {
		room.drawer = ""
	}

	room.broadcast(Message{
		Action: eventLeave,
		Data: LeaveData{
			Name:   name,
			Admin:  room.admin,
			Drawer: room.drawer,
		},
	})

	if wasDrawer && room.state == stateDrawing {
		reg.restartRoundLocked(room)
	}
}

// restartRoundLocked aborts the turn after a drawer departure: the active
// prompt is discarded, a new drawer is selected for the same round number,
// and a fresh choice list goes out. A short collection ends the game, same
// as at round resolution.
func (reg *Registry) restartRoundLocked(room *Room) {
	room.prompt = nil

	drawer := room.selectDrawer()
	room.drawer = drawer.name

	choices := room.collectChoices()
	if len(choices) < len(room.players)-1 {
		reg.endGameLocked(room)
		return
	}

	room.broadcast(Message{
		Action: eventNewRound,
		Data:   NewRoundData{Drawer: room.drawer, RoundNum: room.roundNum},
	})

	drawer.client.trySend(Message{
		Action: eventChoices,
		Data:   ChoicesData{Choices: choices},
	})
}
