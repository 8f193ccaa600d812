package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/Astrocyte74/jeopardy-sub000/internal/library"
	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Trivia Editor API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Game editor sessions with AI generation, preview and undo, plus the saved game library.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/generate
	postGenerate, _ := r.NewOperationContext(http.MethodPost, "/api/generate")
	postGenerate.SetSummary("Generate content")
	postGenerate.SetDescription("Forwards a prompt for one of the known actions to the model and returns its raw text. Rate limited per client address over a sliding one-minute window.")
	postGenerate.AddReqStructure(GenerateRequest{})
	postGenerate.AddRespStructure(GenerateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGenerate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGenerate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	postGenerate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(postGenerate)

	// GET /api/actions
	getActions, _ := r.NewOperationContext(http.MethodGet, "/api/actions")
	getActions.SetSummary("List actions")
	getActions.SetDescription("Returns every AI action with the document level it targets.")
	getActions.AddRespStructure([]ActionInfo{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getActions)

	// POST /api/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	createSession.SetSummary("Open editor session")
	createSession.SetDescription("Opens a library game, or a blank game when gameId is empty.")
	createSession.AddReqStructure(CreateSessionRequest{})
	createSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(createSession)

	// GET /api/sessions/{sessionID}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}")
	getSession.AddReqStructure(SessionPath{})
	getSession.SetSummary("Get session")
	getSession.SetDescription("Returns the document, selection and dirty state.")
	getSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// DELETE /api/sessions/{sessionID}
	deleteSession, _ := r.NewOperationContext(http.MethodDelete, "/api/sessions/{sessionID}")
	deleteSession.AddReqStructure(SessionPath{})
	deleteSession.SetSummary("Close session")
	deleteSession.SetDescription("Flushes any pending autosave and drops the session's undo snapshots.")
	deleteSession.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteSession)

	// PUT /api/sessions/{sessionID}/selection
	putSelection, _ := r.NewOperationContext(http.MethodPut, "/api/sessions/{sessionID}/selection")
	putSelection.SetSummary("Move selection")
	putSelection.SetDescription("Sets the focused category and clue. Use -1 for an unset index.")
	putSelection.AddReqStructure(SelectionRequest{})
	putSelection.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putSelection.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putSelection.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(putSelection)

	// PUT /api/sessions/{sessionID}/game
	putGame, _ := r.NewOperationContext(http.MethodPut, "/api/sessions/{sessionID}/game")
	putGame.AddReqStructure(SessionPath{})
	putGame.SetSummary("Replace document")
	putGame.SetDescription("Stores a direct edit. Marks the session dirty and schedules an autosave.")
	putGame.AddReqStructure(SessionGameRequest{})
	putGame.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(putGame)

	// POST /api/sessions/{sessionID}/save
	postSave, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/save")
	postSave.AddReqStructure(SessionPath{})
	postSave.SetSummary("Save session")
	postSave.SetDescription("Writes the document to the library now, creating a record when the game has none.")
	postSave.AddReqStructure(SaveSessionRequest{})
	postSave.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSave.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postSave)

	// POST /api/sessions/{sessionID}/actions
	postAction, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/actions")
	postAction.AddReqStructure(SessionPath{})
	postAction.SetSummary("Run AI action")
	postAction.SetDescription("Generates, validates and applies an action. Direct mode returns the outcome. Preview mode returns 202 with a preview id; the preview is published on the event stream and settled through the previews endpoint.")
	postAction.AddReqStructure(ActionRequest{})
	postAction.AddRespStructure(ActionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAction.AddRespStructure(PreviewAccepted{}, openapi.WithHTTPStatus(http.StatusAccepted))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(postAction)

	// GET /api/sessions/{sessionID}/previews
	listPreviews, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/previews")
	listPreviews.SetSummary("List pending previews")
	listPreviews.SetDescription("Previews awaiting a decision, oldest first. Undecided previews are cancelled after the preview timeout.")
	listPreviews.AddReqStructure(SessionPath{})
	listPreviews.AddRespStructure([]PreviewView{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listPreviews)

	// GET /api/sessions/{sessionID}/previews/{previewID}
	getPreview, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/previews/{previewID}")
	getPreview.SetSummary("Get pending preview")
	getPreview.AddReqStructure(PreviewPath{})
	getPreview.AddRespStructure(PreviewView{}, openapi.WithHTTPStatus(http.StatusOK))
	getPreview.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPreview)

	// POST /api/sessions/{sessionID}/previews/{previewID}
	postPreview, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/previews/{previewID}")
	postPreview.SetSummary("Settle preview")
	postPreview.SetDescription("Confirms or cancels a pending preview. Cancelling leaves the document and undo snapshots untouched.")
	postPreview.AddReqStructure(PreviewDecisionRequest{})
	postPreview.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	postPreview.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postPreview)

	// POST /api/sessions/{sessionID}/undo/{snapshotID}
	postUndo, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/undo/{snapshotID}")
	postUndo.SetSummary("Undo AI change")
	postUndo.SetDescription("Restores the snapshot taken before an AI change. Each snapshot can be used once and expires after five minutes.")
	postUndo.AddReqStructure(UndoRequest{})
	postUndo.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postUndo.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusGone))
	_ = r.AddOperation(postUndo)

	// GET /api/sessions/{sessionID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events with notifications, previews and render signals for the session.")
	getEvents.AddReqStructure(SessionPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/library/categories
	listCategories, _ := r.NewOperationContext(http.MethodGet, "/api/library/categories")
	listCategories.SetSummary("List library categories")
	listCategories.AddRespStructure([]library.Category{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listCategories)

	// POST /api/library/categories
	createCategory, _ := r.NewOperationContext(http.MethodPost, "/api/library/categories")
	createCategory.SetSummary("Create library category")
	createCategory.AddReqStructure(CategoryRequest{})
	createCategory.AddRespStructure(library.Category{}, openapi.WithHTTPStatus(http.StatusCreated))
	createCategory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createCategory)

	// GET /api/library/games
	listGames, _ := r.NewOperationContext(http.MethodGet, "/api/library/games")
	listGames.SetSummary("List saved games")
	listGames.SetDescription("Most recently updated first. Filter with ?categoryId=.")
	listGames.AddRespStructure([]library.GameSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listGames)

	// POST /api/library/games
	createGame, _ := r.NewOperationContext(http.MethodPost, "/api/library/games")
	createGame.SetSummary("Save new game")
	createGame.AddReqStructure(GameRequest{})
	createGame.AddRespStructure(library.Game{}, openapi.WithHTTPStatus(http.StatusCreated))
	createGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createGame)

	// GET /api/library/games/{id}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/library/games/{id}")
	getGame.AddReqStructure(GamePath{})
	getGame.SetSummary("Get saved game")
	getGame.AddRespStructure(library.Game{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// PUT /api/library/games/{id}
	updateGame, _ := r.NewOperationContext(http.MethodPut, "/api/library/games/{id}")
	updateGame.SetSummary("Update saved game")
	updateGame.SetDescription("Replaces the document when one is sent and sets the category.")
	updateGame.AddReqStructure(GameUpdateRequest{})
	updateGame.AddRespStructure(library.Game{}, openapi.WithHTTPStatus(http.StatusOK))
	updateGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateGame)

	// DELETE /api/library/games/{id}
	deleteGame, _ := r.NewOperationContext(http.MethodDelete, "/api/library/games/{id}")
	deleteGame.AddReqStructure(GamePath{})
	deleteGame.SetSummary("Delete saved game")
	deleteGame.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteGame)

	// GET /api/library/export
	export, _ := r.NewOperationContext(http.MethodGet, "/api/library/export")
	export.SetSummary("Export library")
	export.SetDescription("Returns all categories and games as one document.")
	export.AddRespStructure(library.Export{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(export)

	return r.Spec
}

// Request shapes with path parameters, used only for documentation.

type SessionPath struct {
	SessionID string `path:"sessionID"`
}

type SelectionRequest struct {
	SessionPath
	CategoryIndex int `json:"categoryIndex"`
	ClueIndex     int `json:"clueIndex"`
}

type SessionGameRequest struct {
	Title      string            `json:"title"`
	Subtitle   string            `json:"subtitle"`
	Categories []trivia.Category `json:"categories"`
}

type GamePath struct {
	ID string `path:"id"`
}

type PreviewPath struct {
	SessionPath
	PreviewID string `path:"previewID"`
}

type PreviewDecisionRequest struct {
	PreviewPath
	Confirm bool `json:"confirm"`
}

type UndoRequest struct {
	SessionPath
	SnapshotID string `path:"snapshotID"`
}

type GameUpdateRequest struct {
	GamePath
	GameRequest
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
