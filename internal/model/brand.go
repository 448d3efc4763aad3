package model

import "time"

// BrandStatement is the shared row shape for all five brand-strategy entity
// kinds. Each kind lives in its own table (see BrandKind.Table); the generated
// statement is serialized under the kind's primary field name.
type BrandStatement struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"userId" gorm:"type:varchar(255);index;not null"`
	Statement     string    `json:"-" gorm:"type:text;not null"`
	OriginalInput string    `json:"originalInput" gorm:"type:text;not null"`
	CreatedAt     time.Time `json:"createdAt"`
}

// BrandKind describes one brand-strategy entity family: its storage table,
// wire field name, route segment, and the prompt used to generate statements.
type BrandKind struct {
	Name         string // singular identifier, e.g. "mission"
	Table        string // database table name
	Field        string // JSON field carrying the statement
	PathPlural   string // URL segment, e.g. "missions"
	SystemPrompt string // system prompt for the statement generator
}

// BrandKinds is the registry of the five brand-strategy families. All generic
// CRUD and generation code is parameterized by one of these entries.
var BrandKinds = []BrandKind{
	{
		Name:       "mission",
		Table:      "brand_missions",
		Field:      "mission",
		PathPlural: "missions",
		SystemPrompt: "You are a brand strategist. Write a single concise mission statement " +
			"for the business described by the user. Respond with the statement only, no preamble.",
	},
	{
		Name:       "vision",
		Table:      "brand_visions",
		Field:      "vision",
		PathPlural: "visions",
		SystemPrompt: "You are a brand strategist. Write a single aspirational vision statement " +
			"for the business described by the user. Respond with the statement only, no preamble.",
	},
	{
		Name:       "value",
		Table:      "brand_values",
		Field:      "valueProposition",
		PathPlural: "values",
		SystemPrompt: "You are a brand strategist. Write a single compelling value proposition " +
			"for the business described by the user. Respond with the statement only, no preamble.",
	},
	{
		Name:       "target",
		Table:      "brand_target_markets",
		Field:      "targetMarket",
		PathPlural: "target-markets",
		SystemPrompt: "You are a brand strategist. Write a single clear target-market definition " +
			"for the business described by the user. Respond with the statement only, no preamble.",
	},
	{
		Name:       "background",
		Table:      "brand_backgrounds",
		Field:      "background",
		PathPlural: "backgrounds",
		SystemPrompt: "You are a brand strategist. Write a short brand background story " +
			"for the business described by the user. Respond with the story only, no preamble.",
	},
}

// BrandKindByName looks up a registry entry by its singular name.
func BrandKindByName(name string) (BrandKind, bool) {
	for _, k := range BrandKinds {
		if k.Name == name {
			return k, true
		}
	}
	return BrandKind{}, false
}

// Serialize returns the wire representation of a brand statement, placing the
// generated text under the kind's primary field name.
func (k BrandKind) Serialize(s *BrandStatement) map[string]interface{} {
	return map[string]interface{}{
		"id":            s.ID,
		"userId":        s.UserID,
		k.Field:         s.Statement,
		"originalInput": s.OriginalInput,
		"createdAt":     s.CreatedAt,
	}
}
