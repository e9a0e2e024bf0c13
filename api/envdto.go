package api

import (
	"net/http"

	"github.com/sksmith/reservation-engine/config"
)

type EnvResponse struct {
	config.Config
}

func NewEnvResponse(c config.Config) *EnvResponse {
	resp := &EnvResponse{Config: c}
	return resp
}

func (er *EnvResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	er.Db.Pass = "******"
	er.RabbitMQ.Pass = "******"
	er.Config.Config.Spring.Pass = "******"

	Scrub(er)

	return nil
}
