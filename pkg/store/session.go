package store

// Conversation is the client-side mirror of one persisted conversation.
type Conversation struct {
	Id       string     `json:"id"`
	Title    string     `json:"title"`
	Messages []*Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is the in-memory state of one authenticated UI session. It is a
// write-through mirror of the conversation store: the store is always updated
// first, the mirror immediately after.
type Session struct {
	Token         string          `json:"token"`
	UserId        string          `json:"user_id"`
	Username      string          `json:"username"`
	SelectedModel string          `json:"selected_model"`
	Conversations []*Conversation `json:"conversations"`
	CurrentChatId string          `json:"current_chat_id"`
}

// Conversation returns the mirrored conversation with the given id, or nil.
func (s *Session) Conversation(id string) *Conversation {
	for _, c := range s.Conversations {
		if c.Id == id {
			return c
		}
	}
	return nil
}

// CurrentConversation returns the mirror entry the UI is pointed at, or nil.
func (s *Session) CurrentConversation() *Conversation {
	if s.CurrentChatId == "" {
		return nil
	}
	return s.Conversation(s.CurrentChatId)
}

// Remove drops the conversation with the given id from the mirror and
// repoints the current-conversation pointer when it referenced that id.
func (s *Session) Remove(id string) {
	kept := s.Conversations[:0]
	for _, c := range s.Conversations {
		if c.Id != id {
			kept = append(kept, c)
		}
	}
	s.Conversations = kept
	if s.CurrentChatId == id {
		s.CurrentChatId = ""
		if len(s.Conversations) > 0 {
			s.CurrentChatId = s.Conversations[0].Id
		}
	}
}
