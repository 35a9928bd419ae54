package app

import "github.com/dkozlov/converse/internal/domain"

// Outbound wire events emitted by the services. Every payload is a single
// JSON object carrying its own "type" field.

type messageEvent struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message"`
}

func receiveMessage(m *domain.Message) messageEvent {
	return messageEvent{Type: "receive-message", Message: m}
}

func sentMessage(m *domain.Message) messageEvent {
	return messageEvent{Type: "sent-message", Message: m}
}

func receiveGroupMessage(m *domain.Message) messageEvent {
	return messageEvent{Type: "receive-group-message", Message: m}
}

type onlineUsersEvent struct {
	Type  string          `json:"type"`
	Users []domain.UserID `json:"users"`
}

func onlineUsers(ids []domain.UserID) onlineUsersEvent {
	return onlineUsersEvent{Type: "online-users", Users: ids}
}

type typingEvent struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username,omitempty"`
}

func userTyping(u *domain.User) typingEvent {
	return typingEvent{Type: "user-typing", UserID: u.ID, Username: u.Username}
}

func userStopTyping(u *domain.User) typingEvent {
	return typingEvent{Type: "user-stop-typing", UserID: u.ID}
}

type groupTypingEvent struct {
	Type     string         `json:"type"`
	GroupID  domain.GroupID `json:"groupId"`
	UserID   domain.UserID  `json:"userId"`
	Username string         `json:"username,omitempty"`
}

func groupUserTyping(gid domain.GroupID, u *domain.User) groupTypingEvent {
	return groupTypingEvent{Type: "group-user-typing", GroupID: gid, UserID: u.ID, Username: u.Username}
}

func groupUserStopTyping(gid domain.GroupID, u *domain.User) groupTypingEvent {
	return groupTypingEvent{Type: "group-user-stop-typing", GroupID: gid, UserID: u.ID}
}

type userStatusEvent struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	IsOnline bool          `json:"isOnline"`
}

func userStatus(id domain.UserID, online bool) userStatusEvent {
	return userStatusEvent{Type: "user-status", UserID: id, IsOnline: online}
}

type messagesReadEvent struct {
	Type   string        `json:"type"`
	ReadBy domain.UserID `json:"readBy"`
}

func messagesRead(readBy domain.UserID) messagesReadEvent {
	return messagesReadEvent{Type: "messages-read", ReadBy: readBy}
}

type groupCreatedEvent struct {
	Type  string        `json:"type"`
	Group *domain.Group `json:"group"`
}

func groupCreated(g *domain.Group) groupCreatedEvent {
	return groupCreatedEvent{Type: "group-created", Group: g}
}
