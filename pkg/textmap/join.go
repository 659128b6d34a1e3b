package textmap

import (
	"io/fs"
	"log/slog"

	"github.com/jwebster45206/mission-script/pkg/gamedata"
)

// PlayerNameHash is returned by JoinResolver.TextHash when the join item exists
// but carries no text, meaning the protagonist's name goes there.
const PlayerNameHash = "\x00player_name"

// JoinResolver follows TextJoinConfig -> TextJoinItem to find the text behind a
// {TEXTJOIN#n} placeholder.
type JoinResolver struct {
	defaultItems map[int64]int64  // join id -> default item id
	itemHashes   map[int64]string // item id -> text hash, PlayerNameHash when absent
}

// NewJoinResolver builds a resolver from already-decoded tables.
// An empty hash in items marks a player-name item.
func NewJoinResolver(defaultItems map[int64]int64, items map[int64]string) *JoinResolver {
	r := &JoinResolver{
		defaultItems: make(map[int64]int64, len(defaultItems)),
		itemHashes:   make(map[int64]string, len(items)),
	}
	for k, v := range defaultItems {
		r.defaultItems[k] = v
	}
	for k, v := range items {
		if v == "" {
			v = PlayerNameHash
		}
		r.itemHashes[k] = v
	}
	return r
}

// LoadJoinResolver reads both join tables. A missing table yields a resolver
// that never resolves, so text still loads without join data.
func LoadJoinResolver(fsys fs.FS, logger *slog.Logger) *JoinResolver {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := make(map[int64]int64)
	configRows, err := gamedata.ReadRows(fsys, gamedata.TextJoinConfigPath)
	if err != nil {
		logger.Warn("Failed to load text join config", "error", err)
	}
	for _, row := range configRows {
		joinID, ok := gamedata.ID(row, "TextJoinID")
		if !ok {
			continue
		}
		itemID, ok := gamedata.ID(row, "DefaultItem")
		if !ok {
			logger.Debug("Text join config row without default item", "join_id", joinID)
			continue
		}
		defaults[joinID] = itemID
	}

	items := make(map[int64]string)
	itemRows, err := gamedata.ReadRows(fsys, gamedata.TextJoinItemPath)
	if err != nil {
		logger.Warn("Failed to load text join items", "error", err)
	}
	for _, row := range itemRows {
		itemID, ok := gamedata.ID(row, "TextJoinItemID")
		if !ok {
			continue
		}
		hash, _ := gamedata.Hash(row, "TextJoinText")
		items[itemID] = hash
	}

	logger.Debug("Loaded text join tables", "configs", len(defaults), "items", len(items))
	return NewJoinResolver(defaults, items)
}

// TextHash returns the text hash for a join id.
func (r *JoinResolver) TextHash(joinID int64) (string, bool) {
	if r == nil {
		return "", false
	}
	itemID, ok := r.defaultItems[joinID]
	if !ok {
		return "", false
	}
	hash, ok := r.itemHashes[itemID]
	if !ok {
		return "", false
	}
	return hash, true
}
