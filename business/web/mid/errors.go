package mid

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/taikoxyz/taiko-mono/business/web/errs"
	"github.com/taikoxyz/taiko-mono/foundation/web"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform way.
// Unexpected errors (status >= 500) are logged.
func Errors(log *zap.SugaredLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v, err := web.GetValues(ctx)
			if err != nil {
				return web.NewShutdownError("web value missing from context")
			}

			err = handler(ctx, w, r)
			if err == nil {
				return nil
			}

			log.Errorw("ERROR", "traceid", v.TraceID, "ERROR", err)

			var er errs.Response
			var status int

			switch te := errs.GetTrusted(err); {
			case te != nil:
				er = errs.Response{Error: te.Error()}
				status = te.Status

			default:
				er = errs.Response{Error: http.StatusText(http.StatusInternalServerError)}
				status = http.StatusInternalServerError
			}

			if err := web.Respond(ctx, w, er, status); err != nil {
				return err
			}

			// If we receive the shutdown err we need to return it
			// back to the base handler to shut down the service.
			if web.IsShutdown(err) {
				return err
			}

			return nil
		}

		return h
	}

	return m
}
