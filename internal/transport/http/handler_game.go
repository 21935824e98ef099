package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"quizcash/internal/game"
	"quizcash/internal/questions"
	"quizcash/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type GameHandlers struct {
	engine *game.Engine
}

func NewGameHandlers(engine *game.Engine) *GameHandlers {
	return &GameHandlers{engine: engine}
}

// questionView is the client-facing shape: options in shuffled order,
// each carrying its original index so answers come back in original
// index space. The correct index is never serialized.
type optionView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type questionView struct {
	ID        string        `json:"id"`
	Category  string        `json:"category"`
	Level     string        `json:"level"`
	Text      string        `json:"question"`
	Options   [4]optionView `json:"options"`
	TimeLimit int           `json:"time_limit"`
	Points    int           `json:"points"`
}

func toQuestionViews(qs []questions.ShuffledQuestion) []questionView {
	out := make([]questionView, 0, len(qs))
	for _, q := range qs {
		v := questionView{
			ID: q.ID, Category: q.Category, Level: q.Level,
			Text: q.Text, TimeLimit: q.TimeLimit, Points: q.Points,
		}
		for i, text := range q.Options {
			v.Options[i] = optionView{Index: q.OptionOrder[i], Text: text}
		}
		out = append(out, v)
	}
	return out
}

type sessionView struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	GameType        string          `json:"game_type"`
	Level           string          `json:"level,omitempty"`
	Status          string          `json:"status"`
	Stake           decimal.Decimal `json:"stake"`
	TotalPot        decimal.Decimal `json:"total_pot"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	MaxPlayers      int             `json:"max_players"`
	CurrentPlayers  int             `json:"current_players"`
	TotalQuestions  int             `json:"total_questions"`
	RequiredCorrect int             `json:"required_correct"`
	TimePerQuestion int             `json:"time_per_question"`
	WinnerID        string          `json:"winner_id,omitempty"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toSessionView(g *store.GameSession) sessionView {
	return sessionView{
		ID: g.ID, Code: g.Code, GameType: g.GameType, Level: g.Level,
		Status: g.Status, Stake: g.Stake, TotalPot: g.TotalPot,
		PlatformFee: g.PlatformFee, MaxPlayers: g.MaxPlayers,
		CurrentPlayers: g.CurrentPlayers, TotalQuestions: g.TotalQuestions,
		RequiredCorrect: g.RequiredCorrect, TimePerQuestion: g.TimePerQuestion,
		WinnerID: g.WinnerID, StartedAt: g.StartedAt,
		CompletedAt: g.CompletedAt, CreatedAt: g.CreatedAt,
	}
}

func (h *GameHandlers) Levels() http.HandlerFunc {
	type levelView struct {
		Name            string          `json:"name"`
		GameType        string          `json:"game_type"`
		Questions       int             `json:"questions"`
		RequiredCorrect int             `json:"required_correct"`
		Multiplier      decimal.Decimal `json:"multiplier"`
		MaxPlayers      int             `json:"max_players"`
		TimePerQuestion int             `json:"time_per_question"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		out := []levelView{}
		for _, lvl := range game.Levels() {
			out = append(out, levelView{
				Name: lvl.Name, GameType: lvl.GameType,
				Questions: lvl.Questions, RequiredCorrect: lvl.RequiredCorrect,
				Multiplier: lvl.Multiplier, MaxPlayers: lvl.MaxPlayers,
				TimePerQuestion: lvl.TimePerQuestion,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"levels": out})
	}
}

func (h *GameHandlers) Start() http.HandlerFunc {
	type request struct {
		Level string          `json:"level"`
		Stake decimal.Decimal `json:"stake"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		res, err := h.engine.Start(r.Context(), accountID, req.Level, req.Stake)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session":   toSessionView(res.Session),
			"questions": toQuestionViews(res.Questions),
		})
	}
}

func (h *GameHandlers) Submit() http.HandlerFunc {
	type request struct {
		Answers []game.Answer `json:"answers"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		sessionID := chi.URLParam(r, "session_id")
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		res, err := h.engine.Submit(r.Context(), sessionID, accountID, req.Answers)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session":  toSessionView(res.Session),
			"score":    res.Score,
			"total":    res.Total,
			"settled":  res.Outcome.Settled,
			"won":      res.Outcome.Won,
			"prize":    res.Outcome.Prize,
			"winner":   res.Outcome.WinnerID,
			"refunded": res.Outcome.Refunded,
			"results":  res.Results,
		})
	}
}

func (h *GameHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		sessionID := chi.URLParam(r, "session_id")
		g, err := h.engine.Join(r.Context(), sessionID, accountID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"session": toSessionView(g)})
	}
}

func (h *GameHandlers) Quit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		sessionID := chi.URLParam(r, "session_id")
		g, err := h.engine.Quit(r.Context(), sessionID, accountID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"session": toSessionView(g)})
	}
}

func (h *GameHandlers) Session() http.HandlerFunc {
	type playerView struct {
		AccountID   string     `json:"account_id"`
		Score       *int       `json:"score,omitempty"`
		SubmittedAt *time.Time `json:"submitted_at,omitempty"`
		QuitAt      *time.Time `json:"quit_at,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")
		g, players, err := h.engine.Session(r.Context(), sessionID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		views := make([]playerView, 0, len(players))
		for _, p := range players {
			views = append(views, playerView{AccountID: p.AccountID, Score: p.Score, SubmittedAt: p.SubmittedAt, QuitAt: p.QuitAt})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session": toSessionView(g),
			"players": views,
		})
	}
}
