package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"sharpe.service/api"
	m "sharpe.service/models"
	"sharpe.service/universe"
)

const (
	DefaultAddr = ":8080"
)

func GetHttpServer(sc *ServiceContext, addr string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) { health(w, r, sc) })
	router.Post("/api/rank", func(w http.ResponseWriter, r *http.Request) { rank(w, r, sc) })
	router.Get("/api/rank/chart", func(w http.ResponseWriter, r *http.Request) { rankChart(w, r, sc) })

	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// a full universe fetch at the provider's rate limit takes a while
		WriteTimeout:   120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return server
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request served")
	})
}

func health(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	response := m.HealthResponse{Status: "ok"}

	if sc.PostgresConnection != nil {
		if err := sc.PostgresConnection.Ping(r.Context()); err != nil {
			response.Status = "degraded"
			response.Database = "unreachable"
			writeJson(w, http.StatusServiceUnavailable, m.GetServiceResponseOk(&response))
			return
		}
		response.Database = "ok"
	}

	writeJson(w, http.StatusOK, m.GetServiceResponseOk(&response))
}

func rank(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	var request m.RankRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	settings, err := rankSettingsFromRequest(&request)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := sc.WithContext(r.Context()).RunRanking(settings)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJson(w, http.StatusOK, m.GetServiceResponseOk(result))
}

func rankChart(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	settings, err := rankSettingsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := sc.WithContext(r.Context()).RunRanking(settings)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	image, err := RenderBarChart(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(image); err != nil {
		log.Error().Err(err).Msg("error writing chart response")
	}
}

func rankSettingsFromRequest(request *m.RankRequest) (RankSettings, error) {
	settings := RankSettings{
		Symbols:      request.Tickers,
		PeriodYears:  request.PeriodYears,
		RiskFreeRate: DefaultRiskFreeRate,
		Interval:     api.IntervalMonthly,
		PriceField:   api.PriceFieldAdjustedClose,
		TopN:         request.TopN,
	}

	if settings.PeriodYears == 0 {
		settings.PeriodYears = DefaultPeriodYears
	}
	if settings.TopN == 0 {
		settings.TopN = DefaultTopN
	}
	if request.RiskFreeRate != nil {
		settings.RiskFreeRate = *request.RiskFreeRate
	}

	var err error
	if request.Interval != "" {
		if settings.Interval, err = api.ParseInterval(request.Interval); err != nil {
			return settings, err
		}
	}
	if request.PriceField != "" {
		if settings.PriceField, err = api.ParsePriceField(request.PriceField); err != nil {
			return settings, err
		}
	}

	return settings, settings.Validate()
}

func rankSettingsFromQuery(r *http.Request) (RankSettings, error) {
	query := r.URL.Query()

	request := m.RankRequest{
		Tickers:    universe.ParseList(query.Get("tickers")),
		Interval:   query.Get("interval"),
		PriceField: query.Get("field"),
	}

	var err error
	if raw := query.Get("period"); raw != "" {
		if request.PeriodYears, err = strconv.Atoi(raw); err != nil {
			return RankSettings{}, errors.New("period must be a whole number of years")
		}
	}
	if raw := query.Get("top"); raw != "" {
		if request.TopN, err = strconv.Atoi(raw); err != nil {
			return RankSettings{}, errors.New("top must be a whole number")
		}
	}
	if raw := query.Get("riskFree"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return RankSettings{}, errors.New("riskFree must be a number")
		}
		request.RiskFreeRate = &rate
	}

	return rankSettingsFromRequest(&request)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrEmptyUniverse):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoUsableData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("error encoding json response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJson(w, status, m.GetServiceResponseError(message))
}
