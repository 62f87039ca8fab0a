package server

import "github.com/shouni/go-comicflow/pkg/domain"

// PanelInput は POST /stories/:story_id/panels のリクエストボディです。
type PanelInput struct {
	UserStoryInput string `json:"user_story_input" binding:"required"`
}

// PanelResponse は呼び出し元に返すパネルの表現です。視覚プロンプトは含めません。
type PanelResponse struct {
	PanelNumber   int     `json:"panel_number"`
	UserInput     string  `json:"user_input"`
	AINarration   string  `json:"ai_narration"`
	AIDialogue    *string `json:"ai_dialogue"`
	AISoundEffect *string `json:"ai_sound_effect"`
	ImageURL      string  `json:"image_url"`
}

// StoryResponse は GET /stories/:story_id のレスポンスです。
type StoryResponse struct {
	StoryID string          `json:"story_id"`
	Panels  []PanelResponse `json:"panels"`
}

// StoryListItem は GET /stories の要素です。
type StoryListItem struct {
	StoryID string `json:"story_id"`
}

// SuggestionResponse は GET /stories/:story_id/suggestion のレスポンスです。
type SuggestionResponse struct {
	StoryID    string `json:"story_id"`
	Suggestion string `json:"suggestion"`
}

func toPanelResponse(p domain.Panel) PanelResponse {
	return PanelResponse{
		PanelNumber:   p.PanelNumber,
		UserInput:     p.UserInput,
		AINarration:   p.AINarration,
		AIDialogue:    p.AIDialogue,
		AISoundEffect: p.AISoundEffect,
		ImageURL:      p.ImageURL,
	}
}

func toStoryResponse(story domain.Story) StoryResponse {
	panels := make([]PanelResponse, 0, len(story.Panels))
	for _, p := range story.Panels {
		panels = append(panels, toPanelResponse(p))
	}
	return StoryResponse{StoryID: story.ID, Panels: panels}
}
