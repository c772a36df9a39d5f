// Package normalize converts raw search results into canonical mentions,
// applying the relevance and recency filters.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"mention_tracker/internal/domain"
)

// Reason explains why a raw post was not normalized into a mention.
type Reason string

const (
	ReasonNotRelevant Reason = "not_relevant"
	ReasonTooOld      Reason = "too_old"
)

// Word characters plus the Hebrew block; a tag ends at the first character
// outside that set, so "#march madness" yields only "#march".
var hashtagRe = regexp.MustCompile(`#[\w\x{0590}-\x{05ff}]+`)

type Normalizer struct {
	keyword string
}

// New returns a Normalizer matching captions against keyword
// (case-insensitive substring).
func New(keyword string) *Normalizer {
	return &Normalizer{keyword: strings.ToLower(keyword)}
}

// Normalize builds a Mention from a raw post, or reports why it was
// rejected. Pure: no I/O, no clock reads; the cutoff is computed once per
// cycle by the caller.
//
// Records with an empty post ID or username are still constructed: the
// resulting URL is malformed, but a relevant mention is never silently
// dropped.
func (n *Normalizer) Normalize(raw domain.RawPost, cutoff time.Time) (*domain.Mention, Reason) {
	caption := raw.Caption
	if !strings.Contains(strings.ToLower(caption), n.keyword) {
		return nil, ReasonNotRelevant
	}

	createdAt := time.Unix(raw.CreateTime, 0).UTC()
	if createdAt.Before(cutoff) {
		return nil, ReasonTooOld
	}

	postID := raw.VideoID
	if postID == "" {
		postID = raw.AwemeID
	}
	username := raw.AuthorUniqueID
	if username == "" {
		username = raw.AuthorNickname
	}

	return &domain.Mention{
		PostID:    postID,
		Username:  username,
		Caption:   caption,
		Hashtags:  ExtractHashtags(caption),
		Type:      domain.MentionDirect,
		Views:     raw.PlayCount,
		Likes:     raw.DiggCount,
		Comments:  raw.CommentCount,
		Shares:    raw.ShareCount,
		PostURL:   PostURL(username, postID),
		CreatedAt: createdAt,
	}, ""
}

// ExtractHashtags returns the tags of a caption in order of appearance.
// Repeated tags are kept; hashtags must always be recomputed from the
// caption, never trusted from an upstream cache.
func ExtractHashtags(caption string) []string {
	return hashtagRe.FindAllString(caption, -1)
}

// PostURL builds the canonical deep link for a post.
func PostURL(username, postID string) string {
	return fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", username, postID)
}
