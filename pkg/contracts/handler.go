package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every HTTP handler group the application
// bootstrap can mount.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
