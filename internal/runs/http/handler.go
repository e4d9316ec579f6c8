package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/arrest"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/centrality"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/community"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/export"
	netdomain "github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/domain"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/robustness"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/domain"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/service"
)

type Handler struct {
	svc *service.Service
}

// Register attaches the analysis routes. Analyses hang off the networks
// group; recorded runs are addressable under their own group.
func Register(networks, runs *gin.RouterGroup, svc *service.Service) {
	h := &Handler{svc: svc}

	networks.POST("/:id/centrality", h.analyze(domain.KindCentrality))
	networks.POST("/:id/communities", h.analyze(domain.KindCommunities))
	networks.POST("/:id/kemeny", h.analyze(domain.KindKemeny))
	networks.POST("/:id/kemeny/sensitivity", h.analyze(domain.KindSensitivity))
	networks.POST("/:id/partition", h.analyze(domain.KindPartition))
	networks.POST("/:id/order", h.analyze(domain.KindOrder))
	networks.POST("/:id/simulation", h.analyze(domain.KindSimulation))
	networks.GET("/:id/runs", h.listRuns)

	runs.GET("/:run_id", h.getRun)
	runs.GET("/:run_id/trace", h.trace)
}

// analysisReq mirrors the parameter surface of every analysis kind; fields
// that do not apply to an endpoint are simply ignored by the engine.
type analysisReq struct {
	Basis    string   `json:"basis"`
	Measures []string `json:"measures"`
	Measure  string   `json:"measure"`
	Alpha    *float64 `json:"alpha"`
	Beta     *float64 `json:"beta"`
	Gamma    *float64 `json:"gamma"`
	Balance  *int     `json:"balance"`
	BudgetMs *int64   `json:"budget_ms"`
	Workers  int      `json:"workers"`
	Order    []int    `json:"order"`
}

func (h *Handler) analyze(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req analysisReq
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
				return
			}
		}

		params := domain.AnalysisParams{
			Basis:    req.Basis,
			Measures: req.Measures,
			Measure:  req.Measure,
			Alpha:    req.Alpha,
			Beta:     req.Beta,
			Gamma:    req.Gamma,
			Balance:  req.Balance,
			BudgetMs: req.BudgetMs,
			Workers:  req.Workers,
			Order:    req.Order,
		}

		run, err := h.svc.Run(c.Request.Context(), c.Param("id"), kind, params)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"ok": false, "error": err.Error()})
			return
		}
		h.respond(c, run)
	}
}

func (h *Handler) listRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.svc.ListRuns(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "runs": items})
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.svc.GetRun(c.Request.Context(), c.Param("run_id"))
	if errors.Is(err, domain.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	h.respond(c, run)
}

func (h *Handler) trace(c *gin.Context) {
	snaps, err := h.svc.Trace(c.Request.Context(), c.Param("run_id"))
	if errors.Is(err, domain.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if snaps == nil {
		snaps = []arrest.Snapshot{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "trace": snaps})
}

// respond renders the run as JSON, or as the kind's CSV table when the
// request asked for format=csv.
func (h *Handler) respond(c *gin.Context, run *domain.AnalysisRun) {
	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, gin.H{"ok": true, "run": run})
		return
	}

	data, err := renderCSV(run.Kind, run.Result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", run.Kind))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// renderCSV decodes the stored payload back into its artifact type and
// feeds it through the matching export writer.
func renderCSV(kind string, payload json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	switch kind {
	case domain.KindCentrality:
		var table centrality.Table
		if err := json.Unmarshal(payload, &table); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
		}
		if err := export.WriteCentrality(&buf, &table); err != nil {
			return nil, err
		}
	case domain.KindCommunities:
		var res community.Result
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
		}
		if err := export.WriteCommunities(&buf, &res); err != nil {
			return nil, err
		}
	case domain.KindKemeny:
		var res robustness.Result
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
		}
		if err := export.WriteKemeny(&buf, &res); err != nil {
			return nil, err
		}
	case domain.KindSensitivity:
		var res robustness.Sensitivity
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
		}
		if err := export.WriteSensitivity(&buf, res.RankedBySeverity()); err != nil {
			return nil, err
		}
	case domain.KindPartition:
		var res service.PartitionPayload
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
		}
		if err := export.WritePartition(&buf, res.Partition); err != nil {
			return nil, err
		}
	case domain.KindOrder:
		var res service.OrderPayload
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
		}
		if err := export.WriteOrder(&buf, res.Entries); err != nil {
			return nil, err
		}
	case domain.KindSimulation:
		var res service.SimulationPayload
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
		}
		if err := export.WriteTrace(&buf, res.Trace); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	return buf.Bytes(), nil
}

// statusFor maps engine and domain errors onto HTTP codes. Bad client
// input is 400, undefined-baseline sweeps are 422, everything else 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, netdomain.ErrNetworkNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownKind),
		errors.Is(err, robustness.ErrBadBasis),
		errors.Is(err, centrality.ErrUnknownMeasure),
		errors.Is(err, arrest.ErrBadOptions),
		errors.Is(err, arrest.ErrInvalidOrder),
		errors.Is(err, arrest.ErrInvalidPartition):
		return http.StatusBadRequest
	case errors.Is(err, robustness.ErrUndefinedBaseline):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
