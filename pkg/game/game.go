package game

// Image is a renderable asset reference with alt text for
// degraded rendering surfaces.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Attribution credits the source of a bundled music track.
type Attribution struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	From   string `json:"from"`
}

// MusicMetadata describes a title music selection.
type MusicMetadata struct {
	Index       int         `json:"index"`
	Filename    string      `json:"filename"`
	Keywords    string      `json:"keywords"`
	Attribution Attribution `json:"attribution"`
}

// Music is a playable track plus its metadata.
type Music struct {
	Src      string        `json:"src"`
	Metadata MusicMetadata `json:"metadata"`
}

// Summary is the high-level pitch for a generated game.
type Summary struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ArtStyle     string `json:"art_style"`
	ArtTheme     string `json:"art_theme"`
	Summary      string `json:"summary"`
	WinCondition string `json:"win_condition"`
}

// NarrativePage is one page of the pre-game narrative cut-scene.
type NarrativePage struct {
	Narrative string `json:"narrative"`
	Image     Image  `json:"image"`
}

// Narrative is the ordered cut-scene shown before play begins.
type Narrative struct {
	Pages []NarrativePage `json:"pages"`
}

// Scene is a location in the game world. Characters and Items hold
// ids that resolve against the owning Game.
type Scene struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Narrative  string   `json:"narrative"`
	Metadata   string   `json:"metadata"`
	Characters []string `json:"characters"`
	Items      []string `json:"items"`
	Image      Image    `json:"image"`
}

// Character is an NPC the player can interact with. Inventory holds
// item ids that resolve against the owning Game.
type Character struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	PhysicalDescription string   `json:"physical_description"`
	Personality         string   `json:"personality"`
	Backstory           string   `json:"backstory"`
	Thoughts            string   `json:"thoughts"`
	Inventory           []string `json:"inventory"`
	Image               Image    `json:"image"`
}

// Item is an object that can appear in scenes, character inventories
// and the player inventory.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       Image  `json:"image"`
}

// Game is the immutable definition of a generated game. It is set once
// per session and never mutated; a new game replaces it wholesale.
type Game struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Summary    Summary     `json:"summary"`
	CoverArt   Image       `json:"cover_art"`
	Narrative  Narrative   `json:"narrative"`
	Scenes     []Scene     `json:"scenes"`
	Characters []Character `json:"characters"`
	Items      []Item      `json:"items"`
	TitleMusic Music       `json:"title_music"`
}
