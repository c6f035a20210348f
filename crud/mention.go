package crud

import (
	"context"
	"regexp"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

// mentionRegex matches @handle tokens: an @ followed by word characters.
var mentionRegex = regexp.MustCompile(`@(\w+)`)

// hashtagRegex matches hashtag-shaped tokens in raw content. Only the
// trending fallback uses it; regular posts carry their tags explicitly.
var hashtagRegex = regexp.MustCompile(`#(\w+)`)

// extractMentions scans content for @handle tokens and resolves each
// against the identity directory. Unresolved handles are silently dropped;
// repeated handles resolve once. The returned IDs keep the order of first
// appearance.
func extractMentions(ctx context.Context, users domain.UserService, content string) ([]string, error) {
	var ids []string
	seen := map[string]bool{}
	for _, match := range mentionRegex.FindAllStringSubmatch(content, -1) {
		handle := match[1]
		if seen[handle] {
			continue
		}
		seen[handle] = true
		user, err := users.FindUserByUsername(ctx, handle)
		if err != nil {
			if errs.ErrorCode(err) == errs.ENOTFOUND {
				continue
			}
			return nil, err
		}
		ids = append(ids, user.ID)
	}
	return ids, nil
}
