package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songx/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchDone MsgKind = iota
	MsgLyricsFetched
	MsgExtraFetched
	MsgCommentsFetched
	MsgSongSaved
	MsgStatus
)

type searchDone struct {
	source  string
	keyword string
	songs   []models.SongSummary
}

// songDetail carries the id of the song it belongs to so late replies for a
// song the user already left can be dropped.
type songDetail struct {
	songID   string
	lyrics   string
	extra    models.ExtraMetadata
	comments models.CommentList
}

type songSaved struct {
	saved *models.SavedSong
	err   error
}

type status struct {
	text string
	err  error
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(source, keyword string, songs []models.SongSummary) Msg {
	return Msg{kind: MsgSearchDone, data: searchDone{source: source, keyword: keyword, songs: songs}}
}

// lyricsFetchedMsg is the constructor for [MsgLyricsFetched]
func lyricsFetchedMsg(songID, lyrics string) Msg {
	return Msg{kind: MsgLyricsFetched, data: songDetail{songID: songID, lyrics: lyrics}}
}

// extraFetchedMsg is the constructor for [MsgExtraFetched]
func extraFetchedMsg(songID string, extra models.ExtraMetadata) Msg {
	return Msg{kind: MsgExtraFetched, data: songDetail{songID: songID, extra: extra}}
}

// commentsFetchedMsg is the constructor for [MsgCommentsFetched]
func commentsFetchedMsg(songID string, comments models.CommentList) Msg {
	return Msg{kind: MsgCommentsFetched, data: songDetail{songID: songID, comments: comments}}
}

// songSavedMsg is the constructor for [MsgSongSaved]
func songSavedMsg(saved *models.SavedSong, err error) Msg {
	return Msg{kind: MsgSongSaved, data: songSaved{saved: saved, err: err}}
}

// statusMsg is the constructor for [MsgStatus]
func statusMsg(text string, err error) Msg {
	return Msg{kind: MsgStatus, data: status{text: text, err: err}}
}
