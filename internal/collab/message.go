// Package collab implements the per-project presence and co-editing
// channel: membership sync on join, typing indicators, full-content change
// broadcasts and the broadcast-then-debounce-persist synchronization policy.
//
// There is deliberately no operational transform or CRDT merge here. A
// change broadcast carries the entire file content; receivers overwrite
// their buffer in full and whichever debounced persist lands last wins.
package collab

import (
	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/model"
)

// Frame types. "view" and "change" flow client to server; the rest flow
// server to client.
const (
	// FrameRoster carries the full membership snapshot, sent once to a
	// joining session.
	FrameRoster = "roster"
	// FramePresence announces one member's current state (join, file
	// switch, typing transitions).
	FramePresence = "presence"
	// FrameLeave announces a departed member.
	FrameLeave = "leave"
	// FrameView tells the server which file the client now has open.
	FrameView = "view"
	// FrameChange carries the entire new content of one file.
	FrameChange = "change"
)

// UserState is a member's presence as it appears on the wire.
type UserState struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	FileID string `json:"file_id,omitempty"`
	Typing bool   `json:"typing,omitempty"`
}

// Frame is the single multiplexed message shape of the collaboration
// channel. In view/change frames an empty FileID addresses the project's
// legacy single-blob editor.
type Frame struct {
	Type    string      `json:"type"`
	User    *UserState  `json:"user,omitempty"`
	Roster  []UserState `json:"roster,omitempty"`
	FileID  string      `json:"file_id,omitempty"`
	UserID  string      `json:"user_id,omitempty"`
	Content string      `json:"content,omitempty"`
}

// legacyBlob is the internal key for the project-level code blob; view
// frames with no file id map to it.
var legacyBlob = uuid.Nil

func userState(u model.UserInfo, fileID *uuid.UUID, typing bool) UserState {
	st := UserState{UserID: u.ID.String(), Name: u.Name, Avatar: u.Avatar, Typing: typing}
	if fileID != nil && *fileID != legacyBlob {
		st.FileID = fileID.String()
	}
	return st
}
