package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/syaqirshaq/fasting-tracker/internal/adapters/offline"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/push"
	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

const maxPushBody = 4096

// hopHeaders are not forwarded by the proxy.
var hopHeaders = []string{"Connection", "Keep-Alive", "Proxy-Connection", "Transfer-Encoding", "Upgrade", "Te", "Trailer"}

// Handler serves the push receiver and puts the background worker in front of
// every other request, as a browser would see it.
func (a *App) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/push/:id", a.receivePush)
	router.NoRoute(a.proxy)

	return router
}

// Serve blocks until ctx is cancelled, then shuts the server down.
func (a *App) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(a.out, "Serving %s on http://%s\n", a.worker.Scope(), addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) receivePush(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPushBody+1))
	if err != nil || len(body) > maxPushBody {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return
	}

	plain, err := a.platform.Open(c.Request.Context(), c.Param("id"),
		c.GetHeader("Authorization"), c.GetHeader("Content-Encoding"), body)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		// 404 tells the sender to drop the subscription.
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown subscription"})
		return
	case errors.Is(err, push.ErrUnauthorizedSender):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	case errors.Is(err, push.ErrMalformedMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed message"})
		return
	default:
		log.Printf("[PUSH] Receive failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	n, err := offline.HandlePush(plain)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a.showNotification(c.Request.Context(), n)
	c.Status(http.StatusCreated)
}

// showNotification prints the notification. The terminal has no click
// affordance, so showing it also performs the click.
func (a *App) showNotification(ctx context.Context, n *offline.Notification) {
	fmt.Fprintf(a.out, "\n[%s] %s\n", n.Title, n.Body)

	target, err := a.worker.NotificationClick(ctx, n, terminalClients{app: a})
	if err != nil {
		log.Printf("[PUSH] Notification click failed: %v", err)
		return
	}
	log.Printf("[PUSH] Notification %s routed to %s", n.Tag, target)
}

func (a *App) proxy(c *gin.Context) {
	target, err := a.worker.Resolve("./" + strings.TrimPrefix(c.Request.URL.Path, "/"))
	if err != nil {
		c.String(http.StatusBadRequest, "bad path")
		return
	}
	if c.Request.URL.RawQuery != "" {
		target += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	req.Header = c.Request.Header.Clone()
	for _, h := range hopHeaders {
		req.Header.Del(h)
	}

	resp, err := a.worker.RoundTrip(req)
	if err != nil {
		c.String(http.StatusBadGateway, err.Error())
		return
	}
	defer resp.Body.Close()

	for k, values := range resp.Header {
		for _, v := range values {
			c.Writer.Header().Add(k, v)
		}
	}
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		log.Printf("[WORKER] Proxy copy for %s failed: %v", target, err)
	}
}

// terminalClients exposes the terminal as the only client window.
type terminalClients struct {
	app *App
}

func (t terminalClients) MatchAll(ctx context.Context) ([]offline.Client, error) {
	return []offline.Client{terminalClient{app: t.app}}, nil
}

func (t terminalClients) OpenWindow(ctx context.Context, url string) error {
	return t.app.navigate(ctx, url)
}

type terminalClient struct {
	app *App
}

func (t terminalClient) URL() string {
	return t.app.Route().URL(t.app.worker.Scope())
}

func (t terminalClient) Focus(ctx context.Context) error { return nil }

func (t terminalClient) Navigate(ctx context.Context, url string) error {
	return t.app.navigate(ctx, url)
}

func (a *App) navigate(ctx context.Context, target string) error {
	route, err := ParseRoute(target)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Open: %s\n", target)
	return a.renderRoute(ctx, route)
}
