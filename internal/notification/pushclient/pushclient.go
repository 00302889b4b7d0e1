package pushclient

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// JSON que espera la pasarela de push
type PushMessage struct {
	Topic string `json:"topic"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type PushClient interface {
	Send(message PushMessage) error
}

type pushClient struct {
	serviceAddr string
}

func NewPushClient(serviceAddr string) PushClient {
	return pushClient{serviceAddr: serviceAddr}
}

func (client pushClient) Send(message PushMessage) error {
	path := "/api/push"

	setreq := resty.New().R()
	setreq.Method = http.MethodPost
	setreq.URL = client.serviceAddr + path
	setreq.SetHeader("Content-Type", "application/json")
	setreq.SetBody(message)
	setresp, err := setreq.Send()
	if err != nil {
		return err
	}

	switch setresp.StatusCode() {
	case http.StatusOK, http.StatusAccepted:
		return nil
	default:
		return fmt.Errorf("push request status: %d", setresp.StatusCode())
	}
}
