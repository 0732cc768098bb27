package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"

	"basket/itemset"
	"basket/metrics"
	"basket/store"
)

const (
	RequestIdHeader = "X-Request-Id"
	requestIdCtxKey = "requestId"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("storeid", isStoreId)
	}
}

// isStoreId accepts letters, digits, '_' and '-', the characters safe in a
// storage path segment.
func isStoreId(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// MineRequest Sigma and MinSetSize fall back to the server defaults only
// when absent.
type MineRequest struct {
	Transactions []itemset.Transaction `json:"transactions"`
	Sigma        *int                  `json:"sigma" binding:"omitempty,min=1"`
	MinSetSize   *int                  `json:"min_set_size" binding:"omitempty,min=2"`
	DatasetId    string                `json:"dataset_id" binding:"omitempty,max=64,storeid"`
}

type datasetUri struct {
	DatasetId string `uri:"dataset_id" binding:"required,max=64,storeid"`
}

type runUri struct {
	DatasetId string `uri:"dataset_id" binding:"required,max=64,storeid"`
	RunId     string `uri:"run_id" binding:"required,max=64,storeid"`
}

type Subset struct {
	Items []itemset.Item `json:"items"`
	Count int            `json:"count"`
}

type RunResponse struct {
	RunId     string   `json:"run_id"`
	DatasetId string   `json:"dataset_id"`
	Subsets   []Subset `json:"subsets"`
}

// Server serves mining runs over http.
type Server struct {
	store             *store.ResultStore
	defaultSigma      int
	defaultMinSetSize int
}

func New(rs *store.ResultStore, defaultSigma, defaultMinSetSize int) *Server {
	return &Server{
		store:             rs,
		defaultSigma:      defaultSigma,
		defaultMinSetSize: defaultMinSetSize,
	}
}

// RequestIdGenerator sets X-Request-Id on the request and response, keeping
// an incoming id when present.
func RequestIdGenerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqId := c.GetHeader(RequestIdHeader)
		if reqId == "" {
			reqId = xid.New().String()
			c.Request.Header.Set(RequestIdHeader, reqId)
		}
		c.Set(requestIdCtxKey, reqId)
		c.Writer.Header().Set(RequestIdHeader, reqId)
		c.Next()
	}
}

func logContext(c *gin.Context) *log.Entry {
	return log.WithFields(log.Fields{
		"reqId":  c.GetString(requestIdCtxKey),
		"method": c.Request.Method,
		"path":   c.FullPath(),
	})
}

// Router builds the gin engine with all routes.
func (s *Server) Router(isDev bool) *gin.Engine {
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestIdGenerator())
	r.Use(gin.Recovery())

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.POST("/mine", s.MineHandler)
	v1.GET("/datasets/:dataset_id/runs", s.ListRunsHandler)
	v1.GET("/datasets/:dataset_id/runs/:run_id", s.GetRunHandler)
	return r
}

func toSubsets(res itemset.Frequencies) []Subset {
	subsets := make([]Subset, 0, len(res))
	for _, k := range res.Keys() {
		subsets = append(subsets, Subset{Items: k.Items(), Count: res[k]})
	}
	return subsets
}

func isInvalidOption(err error) bool {
	return errors.Is(err, itemset.ErrInvalidSupport) ||
		errors.Is(err, itemset.ErrInvalidMinSetSize) ||
		errors.Is(err, itemset.ErrInvalidSubsetSize)
}

// MineHandler POST /v1/mine
func (s *Server) MineHandler(c *gin.Context) {
	logCtx := logContext(c)
	metrics.Increment(metrics.IncrMineRequestCount)

	var req MineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Info("Invalid mine request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sigma, minSetSize := s.defaultSigma, s.defaultMinSetSize
	if req.Sigma != nil {
		sigma = *req.Sigma
	}
	if req.MinSetSize != nil {
		minSetSize = *req.MinSetSize
	}

	txs := req.Transactions
	if len(txs) == 0 && req.DatasetId == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "transactions or dataset_id required"})
		return
	}
	if len(txs) == 0 {
		var err error
		txs, err = s.store.GetTransactions(req.DatasetId)
		if errors.Is(err, store.ErrTransactionsNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "dataset not found"})
			return
		} else if err != nil {
			logCtx.WithError(err).Error("Failed to load dataset")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load dataset"})
			return
		}
	} else {
		if req.DatasetId == "" {
			req.DatasetId = uuid.New().String()
		} else {
			exists, err := s.store.HasTransactions(req.DatasetId)
			if err != nil {
				logCtx.WithError(err).Error("Failed to look up dataset")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to look up dataset"})
				return
			}
			if exists {
				// Stored runs must keep matching their dataset.
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "dataset already exists"})
				return
			}
		}
		if err := s.store.PutTransactions(req.DatasetId, txs); err != nil {
			logCtx.WithError(err).Error("Failed to store dataset")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to store dataset"})
			return
		}
	}

	metrics.Increment(metrics.IncrMineRunCount)
	metrics.CountInt(metrics.CountTransactions, int64(len(txs)))
	startedAt := time.Now()
	res, err := itemset.Mine(txs, itemset.Options{
		Sigma:      sigma,
		MinSetSize: minSetSize,
		Reporter:   metrics.LevelReporter{},
	})
	if err != nil {
		metrics.Increment(metrics.IncrMineRunFailedCount)
		if isInvalidOption(err) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logCtx.WithError(err).Error("Mining failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "mining failed"})
		return
	}
	metrics.RecordLatency(metrics.LatencyMineRun, float64(time.Since(startedAt).Milliseconds()))

	runId := uuid.New().String()
	if err := s.store.PutResults(req.DatasetId, runId, res); err != nil {
		logCtx.WithError(err).Error("Failed to store results")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to store results"})
		return
	}

	logCtx.WithFields(log.Fields{
		"dataset": req.DatasetId,
		"run":     runId,
		"subsets": len(res),
	}).Info("Mined dataset")
	c.JSON(http.StatusOK, RunResponse{RunId: runId, DatasetId: req.DatasetId, Subsets: toSubsets(res)})
}

// GetRunHandler GET /v1/datasets/:dataset_id/runs/:run_id
func (s *Server) GetRunHandler(c *gin.Context) {
	metrics.Increment(metrics.IncrResultsRequestCount)
	var uri runUri
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	datasetId, runId := uri.DatasetId, uri.RunId

	res, err := s.store.GetResults(datasetId, runId)
	if errors.Is(err, store.ErrResultsNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	} else if err != nil {
		logContext(c).WithError(err).Error("Failed to get results")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to get results"})
		return
	}
	c.JSON(http.StatusOK, RunResponse{RunId: runId, DatasetId: datasetId, Subsets: toSubsets(res)})
}

// ListRunsHandler GET /v1/datasets/:dataset_id/runs
func (s *Server) ListRunsHandler(c *gin.Context) {
	var uri datasetUri
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	runs := s.store.ListRuns(uri.DatasetId)
	if runs == nil {
		runs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
