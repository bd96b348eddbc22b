package question

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/prepline/examroom/internal/model"
)

var (
	markdownImageRe = regexp.MustCompile(`!\[([^\]]*)\]\((https?://[^)\s]+)\)`)
	bareImageURLRe  = regexp.MustCompile(`https?://[^\s<>"')]+\.(?:png|jpe?g|gif|webp|svg)(?:\?[^\s<>"']*)?`)
	spaceRunRe      = regexp.MustCompile(`[ \t]{2,}`)
)

// extractImages pulls every image reference — Markdown syntax or a bare
// URL with a known image extension — out of question content, returning
// the cleaned display text and the ordered image list. Images without an
// alt text get a generated "Question image N" one.
func extractImages(content string) (string, []model.QuestionImage) {
	var images []model.QuestionImage

	text := markdownImageRe.ReplaceAllStringFunc(content, func(m string) string {
		groups := markdownImageRe.FindStringSubmatch(m)
		alt := strings.TrimSpace(groups[1])
		if alt == "" {
			alt = fmt.Sprintf("Question image %d", len(images)+1)
		}
		images = append(images, model.QuestionImage{URL: groups[2], AltText: alt})
		return ""
	})

	text = bareImageURLRe.ReplaceAllStringFunc(text, func(url string) string {
		images = append(images, model.QuestionImage{
			URL:     url,
			AltText: fmt.Sprintf("Question image %d", len(images)+1),
		})
		return ""
	})

	text = spaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text), images
}
