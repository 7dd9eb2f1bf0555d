package http

import (
	"context"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"moff.io/wallet-connector/internal/connector"
	"moff.io/wallet-connector/internal/connector/ethereum"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
	"moff.io/wallet-connector/pkg/log/middleware"
	"net/http"
	"time"
)

// Session is the connector driven over HTTP.
type Session interface {
	connector.Connector
	Status() connector.Status
	Signer() connector.Signer
}

// MessageSigner is implemented by signers able to sign arbitrary messages.
type MessageSigner interface {
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

type Server struct {
	session Session
	router  *gin.Engine
	srv     *http.Server
}

func NewServer(address string, session Session, requestTimeout time.Duration) *Server {
	router := gin.New()
	router.Use(middleware.RecoveredHTTPLog(), middleware.TimeoutHTTP(requestTimeout))
	s := &Server{
		session: session,
		router:  router,
		srv:     &http.Server{Addr: address, Handler: router},
	}
	router.GET("/status", s.status)
	router.POST("/connect", s.connect)
	router.POST("/disconnect", s.disconnect)
	router.POST("/sign", s.sign)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background until Stop.
func (s *Server) Start(context.Context) error {
	go func() {
		log.Infof("http server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(errors.WrapAndReport(err, "serve http"))
		}
	}()
	return nil
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Errorf("shutdown http server:%v", err)
	}
}

type statusResponse struct {
	Status connector.Status `json:"status"`
	Signer connector.Signer `json:"signer"`
}

func (s *Server) snapshot() statusResponse {
	return statusResponse{Status: s.session.Status(), Signer: s.session.Signer()}
}

func (s *Server) status(ctx *gin.Context) {
	ok(ctx, s.snapshot())
}

func (s *Server) connect(ctx *gin.Context) {
	if err := s.session.Connect(ctx.Request.Context()); err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, s.snapshot())
}

func (s *Server) disconnect(ctx *gin.Context) {
	if err := s.session.Disconnect(ctx.Request.Context()); err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, s.snapshot())
}

type signRequest struct {
	Message string `json:"message" binding:"required"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

func (s *Server) sign(ctx *gin.Context) {
	var req signRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 4000, "msg": err.Error()})
		return
	}
	signer, supported := s.session.Signer().(MessageSigner)
	if !supported {
		ctx.JSON(http.StatusConflict, gin.H{"code": 4090, "msg": "no signer available"})
		return
	}
	signature, err := signer.SignMessage(ctx.Request.Context(), []byte(req.Message))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, signResponse{Signature: hexutil.Encode(signature)})
}

func ok(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{"code": 0, "msg": "ok", "data": data})
}

func fail(ctx *gin.Context, err error) {
	var providerErr *ethereum.ProviderError
	switch {
	case errors.As(err, &providerErr):
		ctx.JSON(http.StatusConflict, gin.H{"code": providerErr.Code, "msg": providerErr.Message})
	case errors.Is(err, connector.ErrProviderUnavailable):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"code": 5030, "msg": err.Error()})
	case errors.Is(err, connector.ErrUnimplemented):
		ctx.JSON(http.StatusNotImplemented, gin.H{"code": 5010, "msg": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		ctx.JSON(http.StatusGatewayTimeout, gin.H{"code": 5040, "msg": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 5000, "msg": err.Error()})
	}
}
