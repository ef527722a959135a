package main

import (
	"encoding/json"
)

// Messages travel both directions in the same envelope shape. Inbound
// payloads stay raw until the dispatcher knows which action they belong to.
type envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type Message struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

// Actions clients send to the server
const (
	actionJoin         = "join"
	actionStart        = "start"
	actionPrompt       = "prompt"
	actionChoosePrompt = "chooseprompt"
	actionDraw         = "draw"
	actionGuess        = "guess"
	actionHint         = "hint"
	actionSelectWinner = "selectwinner"
	actionPlayAgain    = "playagain"
	actionKick         = "kick"
)

// Actions the server sends to clients
const (
	eventJoinSuccess   = "joinsuccess"
	eventJoin          = "join"
	eventLeave         = "leave"
	eventDraw          = "draw"
	eventGuess         = "guess"
	eventStart         = "start"
	eventError         = "error"
	eventPromptSuccess = "promptsuccess"
	eventNewRound      = "newround"
	eventChoices       = "choices"
	eventTimeRemaining = "timeremaining"
	eventDrawerChosen  = "drawerchosen"
	eventHint          = "hint"
	eventEndRound      = "endround"
	eventGameOver      = "gameover"
)

// Close codes sent in lieu of a message when rejecting a join or kicking
const (
	closeGameNotFound   = 4000
	closeGameInProgress = 4001
	closeNameTaken      = 4002
	closeKicked         = 4003
)

var closeReasons = map[int]string{
	closeGameNotFound:   "The game you are trying to join does not exist.",
	closeGameInProgress: "The game you are trying to join is in progress.",
	closeNameTaken:      "The name you have chosen was already taken.",
	closeKicked:         "You have been kicked by the game admin.",
}

// Joining with this game id creates a new game instead
const createGameID = "banana"

const (
	hintClose = "is close"
	hintFar   = "is NOT close"
)

type Prompt struct {
	Text   string `json:"prompt"`
	Author string `json:"author"`
}

// Inbound payloads

type JoinData struct {
	Name   string `json:"name"`
	GameID string `json:"gameId"`
}

type StartData struct {
	Name   string `json:"name"`
	GameID string `json:"gameId"`
	Rounds int    `json:"rounds"`
}

type PromptData struct {
	Name   string `json:"name"`
	GameID string `json:"gameId"`
	Prompt string `json:"prompt"`
}

type ChoosePromptData struct {
	Name   string `json:"name"`
	GameID string `json:"gameId"`
	Prompt Prompt `json:"prompt"`
}

type DrawData struct {
	Name   string          `json:"name"`
	GameID string          `json:"gameId"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Pixels json.RawMessage `json:"pixels"`
}

type GuessData struct {
	Name   string `json:"name"`
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}

type HintData struct {
	Name   string `json:"name"`
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
	Type   string `json:"type"`
}

type SelectWinnerData struct {
	Name   string `json:"name"`
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
	Winner string `json:"winner"`
}

type PlayAgainData struct {
	Name   string `json:"name"`
	GameID string `json:"gameId"`
}

type KickData struct {
	Name   string `json:"name"`
	GameID string `json:"gameId"`
	Target string `json:"target"`
}

// Outbound payloads

type JoinSuccessData struct {
	Players []string `json:"players"`
	Admin   string   `json:"admin"`
	GameID  string   `json:"gameId"`
}

type JoinNoticeData struct {
	Name string `json:"name"`
}

type LeaveData struct {
	Name   string `json:"name"`
	Admin  string `json:"admin"`
	Drawer string `json:"drawer"`
}

type StartNoticeData struct {
	PromptsPP int `json:"promptsPP"`
}

type ErrorData struct {
	Error string `json:"error"`
}

type PromptSuccessData struct {
	Prompt string `json:"prompt"`
}

type TimeRemainingData struct {
	TimeRemaining int `json:"timeRemaining"`
}

type NewRoundData struct {
	Drawer   string `json:"drawer"`
	RoundNum int    `json:"roundNum"`
}

type ChoicesData struct {
	Choices []Prompt `json:"choices"`
}

type DrawNoticeData struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Pixels json.RawMessage `json:"pixels"`
}

type GuessNoticeData struct {
	Name  string `json:"name"`
	Guess string `json:"guess"`
}

type HintNoticeData struct {
	Guess string `json:"guess"`
	Type  string `json:"type"`
}

type EndRoundData struct {
	RoundNum          int    `json:"roundNum"`
	Drawer            string `json:"drawer"`
	PromptAuthor      string `json:"promptAuthor"`
	Winner            string `json:"winner"`
	PromptAuthorScore int    `json:"promptAuthorScore"`
	WinnerScore       int    `json:"winnerScore"`
	Guess             string `json:"guess"`
	OldPrompt         string `json:"oldPrompt"`
	Over              bool   `json:"over"`
}

type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameOverData struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
