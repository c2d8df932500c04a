package game

// Placeholder assets used when an id reference does not resolve within
// the game definition. Generated content occasionally references things
// it never defined; rendering degrades instead of failing.
const (
	placeholderItemImage      = "images/common/item-placeholder.png"
	placeholderCharacterImage = "images/common/character-placeholder.png"
)

// Scene returns the scene with the given id, or nil if the game does
// not define one.
func (g *Game) Scene(id string) *Scene {
	for i := range g.Scenes {
		if g.Scenes[i].ID == id {
			return &g.Scenes[i]
		}
	}
	return nil
}

// Character resolves a character id. A dangling reference yields a
// placeholder character carrying the id as its name.
func (g *Game) Character(id string) Character {
	for i := range g.Characters {
		if g.Characters[i].ID == id {
			return g.Characters[i]
		}
	}
	return Character{
		ID:   id,
		Name: id,
		Image: Image{
			Src: placeholderCharacterImage,
			Alt: "Character placeholder",
		},
	}
}

// Item resolves an item id. A dangling reference yields a placeholder
// item carrying the id as both name and description.
func (g *Game) Item(id string) Item {
	for i := range g.Items {
		if g.Items[i].ID == id {
			return g.Items[i]
		}
	}
	return Item{
		ID:          id,
		Name:        id,
		Description: id,
		Image: Image{
			Src: placeholderItemImage,
			Alt: "Item placeholder",
		},
	}
}

// ResolveItems maps a list of item ids to item definitions, substituting
// placeholders for ids that do not resolve.
func (g *Game) ResolveItems(ids []string) []Item {
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, g.Item(id))
	}
	return items
}
