package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/shiftboard/internal/schedule"
)

const defaultInstagram = "https://instagram.com/"

// Message is the outreach text a visitor copies before opening Instagram.
type Message struct {
	Text         string `json:"text"`
	InstagramURL string `json:"instagram_url"`
}

// BuildMessage renders the template for a visit today. shop and timeRange
// may be empty when the person has no shift today.
func BuildMessage(today time.Time, shop, timeRange string) string {
	md := fmt.Sprintf("%d月%d日", int(today.Month()), today.Day())
	lines := []string{"shisha-player を見てご連絡しました。", ""}
	if shop != "" {
		lines = append(lines, fmt.Sprintf("本日（%s）、%sでの出勤を拝見しています。", md, shop), "")
	} else {
		lines = append(lines, fmt.Sprintf("本日（%s）、出勤を拝見しています。", md), "")
	}
	if timeRange != "" {
		lines = append(lines, fmt.Sprintf("%s のあいだに伺えればと思っています。", timeRange), "")
	}
	lines = append(lines, "もし可能でしたら、これから伺いたいです。", "")
	return strings.Join(lines, "\n")
}

// Message builds the template for slug using today's first shift, if any.
func (s *Service) Message(ctx context.Context, slug string) (Message, error) {
	now := s.Clock()
	person, err := s.Store.Person(ctx, slug)
	if err != nil {
		return Message{}, err
	}
	day := schedule.StartOfDay(now)
	shifts, err := s.Store.WeekShifts(ctx, slug, day, day)
	if err != nil {
		return Message{}, err
	}
	var shop, timeRange string
	if len(shifts) > 0 {
		shop = shifts[0].ShopDisplayName
		timeRange = shifts[0].Start + "-" + shifts[0].End
	}
	ig := person.InstagramURL
	if ig == "" {
		ig = defaultInstagram
	}
	return Message{Text: BuildMessage(now, shop, timeRange), InstagramURL: ig}, nil
}
