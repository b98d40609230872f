package bridge

import "fmt"

type PageKind int

const (
	PageUnknown PageKind = iota
	PageSignIn
	PageProfile
	PageConversation
	PageFriends
	PageUserSearch
	PageSessions
	PageMessages
	PageNotifications
	PageLoading
	PageSettings
)

var pageNames = map[PageKind]string{
	PageUnknown:       "unknown",
	PageSignIn:        "sign-in",
	PageProfile:       "profile",
	PageConversation:  "conversation",
	PageFriends:       "friends",
	PageUserSearch:    "user-search",
	PageSessions:      "sessions",
	PageMessages:      "messages",
	PageNotifications: "notifications",
	PageLoading:       "loading",
	PageSettings:      "settings",
}

func (k PageKind) String() string {
	if name, ok := pageNames[k]; ok {
		return name
	}
	return pageNames[PageUnknown]
}

func (k PageKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PageKind) UnmarshalText(text []byte) error {
	for kind, name := range pageNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown page %q", text)
}

// Page is an entry in the navigation history. UserID is set for profile and
// conversation pages.
type Page struct {
	Kind   PageKind `json:"kind"`
	UserID string   `json:"userId,omitempty"`
}

func ProfilePage(userID string) Page {
	return Page{Kind: PageProfile, UserID: userID}
}

func ConversationPage(userID string) Page {
	return Page{Kind: PageConversation, UserID: userID}
}

// History is a browser-style page stack with a cursor.
type History struct {
	Pages  []Page `json:"pages"`
	Cursor int    `json:"cursor"`
}

func NewHistory(start Page) History {
	return History{Pages: []Page{start}}
}

func (h *History) Current() Page {
	if h.Cursor < 0 || h.Cursor >= len(h.Pages) {
		return Page{Kind: PageUnknown}
	}
	return h.Pages[h.Cursor]
}

// Push drops any forward history and moves to page.
func (h *History) Push(page Page) {
	if h.Cursor < len(h.Pages)-1 {
		h.Pages = h.Pages[:h.Cursor+1]
	}
	h.Pages = append(h.Pages, page)
	h.Cursor = len(h.Pages) - 1
}

// Replace swaps the current page in place.
func (h *History) Replace(page Page) {
	if h.Cursor < 0 || h.Cursor >= len(h.Pages) {
		h.Push(page)
		return
	}
	h.Pages[h.Cursor] = page
}

func (h *History) Back() {
	if h.Cursor > 0 {
		h.Cursor--
	}
}

func (h *History) Forward() {
	if h.Cursor < len(h.Pages)-1 {
		h.Cursor++
	}
}

func (h History) clone() History {
	return History{Pages: append([]Page(nil), h.Pages...), Cursor: h.Cursor}
}
