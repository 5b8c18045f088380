package handlers

import (
	"flashdeck/internal/models"
	"flashdeck/internal/service"
)

type DeckView struct {
	models.DeckInfo
	Summary *models.DeckSummary
}

type IndexViewData struct {
	Title     string
	Decks     []DeckView
	Resume    *service.View
	CSRFToken string
	Notice    string
	Error     string
}

type StudyViewData struct {
	Title     string
	View      *service.View
	CSRFToken string
}

type FinishedViewData struct {
	Title     string
	Completed *models.CompletedSession
}

type HistoryViewData struct {
	Title    string
	Sessions []models.CompletedSession
}
