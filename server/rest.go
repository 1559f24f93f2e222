// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cineai/cineai/base/log"
	"github.com/cineai/cineai/config"
	"github.com/cineai/cineai/dataset"
	"github.com/cineai/cineai/engine"
	"github.com/cineai/cineai/logics"
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RestServer implements a REST-ful API server.
type RestServer struct {
	Config     *config.Config
	Engine     *engine.Engine
	WebService *restful.WebService
}

func NewRestServer(cfg *config.Config, e *engine.Engine) *RestServer {
	return &RestServer{Config: cfg, Engine: e}
}

// Health is the status of the server.
type Health struct {
	Ready bool         `json:"ready"`
	Stats engine.Stats `json:"stats"`
}

// Evaluation is the ranking quality of an algorithm. Metrics are null if
// no user could be scored.
type Evaluation struct {
	Algorithm string   `json:"algorithm"`
	K         int      `json:"k"`
	Threshold float64  `json:"threshold"`
	Precision *float64 `json:"precision"`
	Recall    *float64 `json:"recall"`
	NDCG      *float64 `json:"ndcg"`
	Users     int      `json:"users"`
	Skipped   int      `json:"skipped"`
}

func NewEvaluation(algorithm string, k int, threshold float64, score logics.Score, defined bool) Evaluation {
	evaluation := Evaluation{
		Algorithm: algorithm,
		K:         k,
		Threshold: threshold,
		Users:     score.Users,
		Skipped:   score.Skipped,
	}
	if defined {
		evaluation.Precision = &score.Precision
		evaluation.Recall = &score.Recall
		evaluation.NDCG = &score.NDCG
	}
	return evaluation
}

// Handler returns the REST APIs together with the OpenAPI spec and metrics.
func (s *RestServer) Handler() http.Handler {
	s.CreateWebService()
	container := restful.NewContainer()
	container.Add(s.WebService)
	specConfig := restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}
	container.Add(restfulspec.NewOpenAPIService(specConfig))
	container.Handle("/metrics", promhttp.Handler())
	return container
}

// Serve runs the HTTP server until the context is canceled.
func (s *RestServer) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.Config.Server.Host, strconv.Itoa(s.Config.Server.Port))
	httpServer := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Logger().Error("failed to shutdown http server", zap.Error(err))
		}
	}()
	log.Logger().Info("start http server", zap.String("url", fmt.Sprintf("http://%s", addr)))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Trace(err)
	}
	return nil
}

// RequestFilter tags every response with a request id, then logs and times it.
func RequestFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	requestId := req.HeaderParameter("X-Request-ID")
	if requestId == "" {
		requestId = uuid.New().String()
	}
	resp.Header().Set("X-Request-ID", requestId)
	start := time.Now()
	chain.ProcessFilter(req, resp)
	RestAPIRequestSecondsVec.WithLabelValues(req.SelectedRoutePath()).Observe(time.Since(start).Seconds())
	if req.Request.URL.Path != "/api/health" {
		log.ResponseLogger(resp).Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
			zap.Int("status_code", resp.StatusCode()), zap.Duration("duration", time.Since(start)))
	}
}

// CreateWebService creates web service.
func (s *RestServer) CreateWebService() {
	ws := new(restful.WebService)
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(RequestFilter)

	ws.Route(ws.GET("/recommend/{user-id}").To(s.getRecommend).
		Doc("Get top-n recommendations for a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("int")).
		Param(ws.QueryParameter("algorithm", "usercf, itemcf or svd").DataType("string")).
		Param(ws.QueryParameter("k", "number of neighbors").DataType("int")).
		Param(ws.QueryParameter("rank", "number of latent factors").DataType("int")).
		Param(ws.QueryParameter("similarity", "cosine, pearson or msd").DataType("string")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("int")).
		Returns(http.StatusOK, "OK", []engine.Recommendation{}).
		Writes([]engine.Recommendation{}))
	ws.Route(ws.GET("/evaluate").To(s.getEvaluate).
		Doc("Evaluate ranking quality on the test split.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"evaluation"}).
		Param(ws.QueryParameter("algorithm", "usercf, itemcf or svd").DataType("string")).
		Param(ws.QueryParameter("k", "number of neighbors").DataType("int")).
		Param(ws.QueryParameter("rank", "number of latent factors").DataType("int")).
		Param(ws.QueryParameter("similarity", "cosine, pearson or msd").DataType("string")).
		Param(ws.QueryParameter("precision-k", "length of ranked lists").DataType("int")).
		Param(ws.QueryParameter("threshold", "minimum relevant rating").DataType("number")).
		Returns(http.StatusOK, "OK", Evaluation{}).
		Writes(Evaluation{}))
	ws.Route(ws.GET("/item/{item-id}").To(s.getItem).
		Doc("Get a movie.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"item"}).
		Param(ws.PathParameter("item-id", "identifier of the item").DataType("int")).
		Returns(http.StatusOK, "OK", dataset.Item{}).
		Writes(dataset.Item{}))
	ws.Route(ws.GET("/health").To(s.getHealth).
		Doc("Get the health of the server.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "OK", Health{}).
		Writes(Health{}))
	s.WebService = ws
}

// ParseInt parses integers from the query parameter.
func ParseInt(request *restful.Request, name string, fallback int) (value int, err error) {
	valueString := request.QueryParameter(name)
	if valueString == "" {
		return fallback, nil
	}
	value, err = strconv.Atoi(valueString)
	if err != nil {
		return 0, errors.NotValidf("%s %q", name, valueString)
	}
	return value, nil
}

// ParseFloat parses floats from the query parameter.
func ParseFloat(request *restful.Request, name string, fallback float64) (value float64, err error) {
	valueString := request.QueryParameter(name)
	if valueString == "" {
		return fallback, nil
	}
	value, err = strconv.ParseFloat(valueString, 64)
	if err != nil {
		return 0, errors.NotValidf("%s %q", name, valueString)
	}
	return value, nil
}

func parseOptions(request *restful.Request) (opts engine.Options, err error) {
	opts.Algorithm = request.QueryParameter("algorithm")
	opts.Similarity = request.QueryParameter("similarity")
	if opts.K, err = ParseInt(request, "k", 0); err != nil {
		return
	}
	opts.Rank, err = ParseInt(request, "rank", 0)
	return
}

func (s *RestServer) getRecommend(request *restful.Request, response *restful.Response) {
	userId, err := strconv.Atoi(request.PathParameter("user-id"))
	if err != nil {
		BadRequest(response, errors.NotValidf("user id %q", request.PathParameter("user-id")))
		return
	}
	opts, err := parseOptions(request)
	if err != nil {
		BadRequest(response, err)
		return
	}
	n, err := ParseInt(request, "n", s.Config.Recommend.TopN)
	if err != nil {
		BadRequest(response, err)
		return
	}
	recommendations, err := s.Engine.Recommend(request.Request.Context(), userId, n, opts)
	if err != nil {
		Error(response, err)
		return
	}
	Ok(response, recommendations)
}

func (s *RestServer) getEvaluate(request *restful.Request, response *restful.Response) {
	opts, err := parseOptions(request)
	if err != nil {
		BadRequest(response, err)
		return
	}
	k, err := ParseInt(request, "precision-k", s.Config.Recommend.PrecisionK)
	if err != nil {
		BadRequest(response, err)
		return
	}
	if k <= 0 {
		k = s.Config.Recommend.PrecisionK
	}
	threshold, err := ParseFloat(request, "threshold", s.Config.Recommend.Threshold)
	if err != nil {
		BadRequest(response, err)
		return
	}
	opts = s.Engine.Options(opts)
	score, err := s.Engine.Evaluate(request.Request.Context(), k, threshold, opts)
	if errors.Is(err, logics.ErrUndefinedMetric) {
		Ok(response, NewEvaluation(opts.Algorithm, k, threshold, score, false))
		return
	} else if err != nil {
		Error(response, err)
		return
	}
	Ok(response, NewEvaluation(opts.Algorithm, k, threshold, score, true))
}

func (s *RestServer) getItem(request *restful.Request, response *restful.Response) {
	itemId, err := strconv.Atoi(request.PathParameter("item-id"))
	if err != nil {
		BadRequest(response, errors.NotValidf("item id %q", request.PathParameter("item-id")))
		return
	}
	item, err := s.Engine.Item(itemId)
	if err != nil {
		Error(response, err)
		return
	}
	Ok(response, item)
}

func (s *RestServer) getHealth(_ *restful.Request, response *restful.Response) {
	stats, err := s.Engine.Stats()
	if err != nil {
		response.Header().Set("Access-Control-Allow-Origin", "*")
		if err = response.WriteHeaderAndJson(http.StatusServiceUnavailable, Health{}, restful.MIME_JSON); err != nil {
			log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
		}
		return
	}
	Ok(response, Health{Ready: true, Stats: stats})
}

// Error writes an error with the status code matching its kind.
func Error(response *restful.Response, err error) {
	switch {
	case errors.Is(err, errors.NotFound):
		PageNotFound(response, err)
	case errors.Is(err, errors.NotValid), errors.Is(err, errors.NotSupported):
		BadRequest(response, err)
	default:
		InternalServerError(response, err)
	}
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	log.ResponseLogger(response).Warn("bad request", zap.Error(err))
	writeError(response, http.StatusBadRequest, err)
}

// InternalServerError returns a internal server error.
func InternalServerError(response *restful.Response, err error) {
	log.ResponseLogger(response).Error("internal server error", zap.Error(err))
	writeError(response, http.StatusInternalServerError, err)
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	writeError(response, http.StatusNotFound, err)
}

func writeError(response *restful.Response, status int, err error) {
	RestAPIErrorsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err = response.WriteError(status, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content any) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteAsJson(content); err != nil {
		log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
	}
}
