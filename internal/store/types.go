package store

import "time"

// Item is a nearby broadcast resolved into something the UI can show.
type Item struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	URL         string    `json:"url"`
	DisplayURL  string    `json:"displayUrl,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Distance    float64   `json:"distance"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Scene string

const (
	SceneHome     Scene = "home"
	SceneSettings Scene = "settings"
)

// State is the whole UI-facing state tree.
type State struct {
	Items      []Item `json:"items"`
	Scanning   bool   `json:"scanning"`
	OpenedItem string `json:"openedItem,omitempty"`
	Scene      Scene  `json:"scene"`
}

func InitialState() State {
	return State{Scene: SceneHome}
}

func (s State) clone() State {
	out := s
	out.Items = append([]Item(nil), s.Items...)
	return out
}

// FindByOriginalURL returns the item sharing originalURL, if any.
func (s State) FindByOriginalURL(originalURL string) (Item, bool) {
	for _, item := range s.Items {
		if item.OriginalURL == originalURL {
			return item, true
		}
	}
	return Item{}, false
}
