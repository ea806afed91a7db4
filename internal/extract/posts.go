package extract

import (
	"sort"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/textnorm"
)

// captionKeyRunes is the fixed-length prefix of normalized caption text used
// as the dedup key when a post has no identifier.
const captionKeyRunes = 64

// DedupePosts merges post records coming from more than one anchor method
// against the same document. The dedup key is the post ID when present,
// otherwise a fixed-length prefix of the normalized caption. First-seen
// order is preserved; the result is truncated to limit (limit <= 0 keeps
// everything).
func DedupePosts(posts []model.PostRecord, limit int) []model.PostRecord {
	seen := make(map[string]struct{}, len(posts))
	out := make([]model.PostRecord, 0, len(posts))
	for _, p := range posts {
		key := p.ID
		if key == "" {
			key = "caption:" + textnorm.Truncate(textnorm.Normalize(p.CaptionSnippet), captionKeyRunes)
		}
		if key == "" || key == "caption:" {
			// No identity at all; keep it, it cannot collide.
			out = append(out, p)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RankPosts orders posts newest-first. The sort is stable and a pair is
// only reordered when both sides carry a reliable date; otherwise input
// order is preserved. Ties are not errors.
func RankPosts(posts []model.PostRecord) []model.PostRecord {
	out := make([]model.PostRecord, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PostedAt == nil || b.PostedAt == nil || a.DateUnreliable || b.DateUnreliable {
			return false
		}
		return a.PostedAt.After(*b.PostedAt)
	})
	return out
}
