package prompt

import (
	"strings"

	"github.com/zulandar/launchpad/internal/models"
)

// Launch content labels. The label is also the key under which generated
// text is stored on a service launch.
const (
	LabelFAQ                 = "FAQ"
	LabelServiceIntroduction = "Service introduction"
	LabelSupportGuide        = "Support guide"
	LabelNotification        = "Notification"
	LabelBanner              = "Banner"
)

// ContentLabels lists the labels with dedicated style guidance.
var ContentLabels = []string{
	LabelFAQ,
	LabelServiceIntroduction,
	LabelSupportGuide,
	LabelNotification,
	LabelBanner,
}

// labelAliases maps alternative spellings, including the Korean labels used
// by existing launches, to canonical labels.
var labelAliases = map[string]string{
	"faq":                  LabelFAQ,
	"service introduction": LabelServiceIntroduction,
	"서비스 소개 콘텐츠":           LabelServiceIntroduction,
	"support guide":        LabelSupportGuide,
	"고객센터 설명자료":            LabelSupportGuide,
	"notification":         LabelNotification,
	"알림 메시지":               LabelNotification,
	"banner":               LabelBanner,
	"배너 메시지":               LabelBanner,
}

// CanonicalContentLabel normalises a content-type label. Unknown labels are
// returned trimmed but otherwise unchanged.
func CanonicalContentLabel(label string) string {
	label = strings.TrimSpace(label)
	if c, ok := labelAliases[strings.ToLower(label)]; ok {
		return c
	}
	return label
}

// ContentAssetType maps a content label to the stored asset type.
func ContentAssetType(label string) string {
	switch CanonicalContentLabel(label) {
	case LabelFAQ:
		return models.ContentFAQ
	case LabelSupportGuide:
		return models.ContentGuide
	case LabelNotification:
		return models.ContentNotification
	case LabelBanner:
		return models.ContentBanner
	default:
		return models.ContentAnnouncement
	}
}

func contentStyleFor(label string) string {
	switch label {
	case LabelFAQ:
		return `You write FAQ content for a consumer finance app.
- Group questions by category
- Keep each question short and plain
- Answer in a friendly, easy-to-follow tone
- Use step-by-step explanations where useful
- Point to related links or further help`
	case LabelServiceIntroduction:
		return `You are a marketing writer producing a service introduction.
- Lead with the core value proposition
- Describe the main features and their benefits
- Explain what sets the service apart
- Keep a friendly, trustworthy tone
- Build the story around the provided service images and state which feature each image highlights`
	case LabelSupportGuide:
		return `You write internal reference material for customer support agents.
- Service overview
- Main features
- How-to guide
- Common problems and their fixes
- Points to watch when talking to customers`
	case LabelNotification:
		return `You are a UX writer producing in-app notification messages.
- Write 5 messages, numbered 1. to 5.
- Each message is at most 100 characters
- Cover launch, update, event, maintenance and important notice situations
- Be concise and end with a clear call to action`
	case LabelBanner:
		return `You are a copywriter producing mobile app banners.
- Write 5 banners, numbered 1. to 5.
- Each banner has a headline and a sub-copy line
- Cover main promotion, feature introduction, event, benefit and call to action
- Keep the copy short enough for a phone screen and state each banner's purpose`
	}
	return "You are an expert writer of " + label + " content."
}
