package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pablogaravito/psm1-exam-simulator/internal/exam"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
	"github.com/pablogaravito/psm1-exam-simulator/internal/response"
	"github.com/pablogaravito/psm1-exam-simulator/internal/service"
	"github.com/pablogaravito/psm1-exam-simulator/internal/validator"
	"github.com/rs/zerolog"
)

// ExamHandler handles the exam attempt endpoints.
type ExamHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		log:         log.With().Str("component", "exam_handler").Logger(),
	}
}

// StartExam godoc
// POST /api/v1/exam/start
// Builds a new attempt from the submitted configuration, replacing any current one.
func (h *ExamHandler) StartExam(c *gin.Context) {
	var req model.ExamConfig
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.examService.Start(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// GetState godoc
// GET /api/v1/exam/state
// Returns the current question, navigation grid and progress.
func (h *ExamHandler) GetState(c *gin.Context) {
	st, err := h.examService.State()
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// SelectOption godoc
// POST /api/v1/exam/questions/:index/options/:option
// Selects an option; on multiple-answer questions the option is toggled.
func (h *ExamHandler) SelectOption(c *gin.Context) {
	qIdx, ok := parseIndex(c, "index")
	if !ok {
		return
	}
	oIdx, ok := parseIndex(c, "option")
	if !ok {
		return
	}

	st, err := h.examService.SelectOption(qIdx, oIdx)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// ToggleFlag godoc
// POST /api/v1/exam/questions/:index/flag
// Flips the review flag of a question.
func (h *ExamHandler) ToggleFlag(c *gin.Context) {
	qIdx, ok := parseIndex(c, "index")
	if !ok {
		return
	}

	st, err := h.examService.ToggleFlag(qIdx)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// Navigate godoc
// POST /api/v1/exam/navigate
// Moves to the next, previous or a specific question.
func (h *ExamHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, err := h.examService.Navigate(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// Submit godoc
// POST /api/v1/exam/submit
// Submits the attempt. With unanswered questions and force unset, only the
// confirmation request is returned and the attempt stays open.
func (h *ExamHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	// An empty body means an unforced submit.
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	res, err := h.examService.Submit(req.Force)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// GetResults godoc
// GET /api/v1/exam/results
// Returns the score summary of a submitted attempt.
func (h *ExamHandler) GetResults(c *gin.Context) {
	summary, err := h.examService.Results()
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// Review godoc
// POST /api/v1/exam/review
// Jumps to the first question of a submitted attempt for review.
func (h *ExamHandler) Review(c *gin.Context) {
	st, err := h.examService.Review()
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// Restart godoc
// POST /api/v1/exam/restart
// Discards the current attempt.
func (h *ExamHandler) Restart(c *gin.Context) {
	h.examService.Restart()
	response.Success(c, http.StatusOK, gin.H{"message": "exam discarded"})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func parseIndex(c *gin.Context, param string) (int, bool) {
	n, err := strconv.Atoi(c.Param(param))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidIndex,
			map[string]string{param: "must be an integer"})
		return 0, false
	}
	return n, true
}

// fail maps a domain error onto the response envelope.
func (h *ExamHandler) fail(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Exam request failed")
	}
	response.Fail(c, status, code)
}

// StatusFor returns the HTTP status and error code for a domain error.
func StatusFor(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrNoActiveExam):
		return http.StatusNotFound, response.ErrNoActiveExam
	case errors.Is(err, service.ErrNotSubmitted):
		return http.StatusConflict, response.ErrNotSubmitted
	case errors.Is(err, service.ErrBankUnavailable):
		return http.StatusServiceUnavailable, response.ErrBankUnavailable
	case errors.Is(err, exam.ErrNoQuestions):
		return http.StatusUnprocessableEntity, response.ErrNoQuestions
	case errors.Is(err, exam.ErrIndexOutOfRange):
		return http.StatusBadRequest, response.ErrInvalidIndex
	case errors.Is(err, exam.ErrNotStarted):
		return http.StatusConflict, response.ErrNotStarted
	case errors.Is(err, exam.ErrUnknownFilter), errors.Is(err, exam.ErrInvalidConfig):
		return http.StatusBadRequest, response.ErrValidation
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}
