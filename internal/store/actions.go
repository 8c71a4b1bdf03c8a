package store

// ActionType names an action the way the UI layer logs it.
type ActionType string

const (
	TypeUpdateItem       ActionType = "UPDATE_ITEM"
	TypeRemoveItem       ActionType = "REMOVE_ITEM"
	TypeClearItems       ActionType = "CLEAR_ITEMS"
	TypeIndicateScanning ActionType = "INDICATE_SCANNING"
	TypeOpenItem         ActionType = "OPEN_ITEM"
	TypeCloseItem        ActionType = "CLOSE_ITEM"
	TypeSetScene         ActionType = "SET_SCENE"
)

// Action is an intent dispatched to the store.
type Action interface {
	Type() ActionType
}

type UpdateItem struct {
	Item Item
}

type RemoveItem struct {
	ID string
}

type ClearItems struct{}

type IndicateScanning struct {
	Value bool
}

type OpenItem struct {
	OriginalURL string
}

type CloseItem struct{}

type SetScene struct {
	Scene Scene
}

func (UpdateItem) Type() ActionType       { return TypeUpdateItem }
func (RemoveItem) Type() ActionType       { return TypeRemoveItem }
func (ClearItems) Type() ActionType       { return TypeClearItems }
func (IndicateScanning) Type() ActionType { return TypeIndicateScanning }
func (OpenItem) Type() ActionType         { return TypeOpenItem }
func (CloseItem) Type() ActionType        { return TypeCloseItem }
func (SetScene) Type() ActionType         { return TypeSetScene }

func OpenSettings() SetScene {
	return SetScene{Scene: SceneSettings}
}
