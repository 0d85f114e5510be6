// Package handler provides typed HTTP handlers on top of net/http.
//
// A HandlerFunc receives a Context and a request value populated by one or
// more Bind functions, and returns a Response. Wrap turns it into an
// http.HandlerFunc:
//
//	checkout := func(ctx handler.Context, req CheckoutRequest) handler.Response {
//		sess, err := svc.CreateCheckout(ctx, req.toInput())
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(map[string]string{"url": sess.URL})
//	}
//
//	r.Post("/api/checkout", handler.Wrap(checkout,
//		handler.WithBinder[handler.Context, CheckoutRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, CheckoutRequest](handler.NewErrorHandler(log)),
//	))
//
// Errors are rendered as {"error": "..."}. ClassifyError picks the status:
// HTTPError values keep their code and message, validator.ValidationErrors
// become 400 with per-field details, binder errors become 400 or 415, and
// everything else is a generic 500 so internal error text is never returned.
package handler
