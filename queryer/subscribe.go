package queryer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/querypad/querypad/requests"
)

// Subscribe runs a subscription operation over the graphql-ws protocol,
// pushing every data message into resCh until the server completes the
// stream or closeCh fires. A nil value on resCh signals the end of the
// stream. The configured header set rides along on the handshake.
func (q *HTTPQueryer) Subscribe(ctx context.Context, req *requests.Request, closeCh <-chan struct{}, resCh chan *requests.Response) error {
	header := make(http.Header)
	for key, value := range q.cfg.Headers {
		header.Set(key, value)
	}

	r := (&http.Request{Header: header}).WithContext(ctx)
	for _, mw := range q.mdwares {
		if err := mw(r); err != nil {
			return err
		}
	}

	dialer := ws.Dialer{
		Timeout:   time.Second,
		Protocols: []string{"graphql-ws"},
		Header:    ws.HandshakeHeaderHTTP(r.Header),
	}

	parsedURL, err := url.Parse(q.cfg.URL)
	if err != nil {
		return err
	}

	switch parsedURL.Scheme {
	case "https":
		parsedURL.Scheme = "wss"
	default:
		parsedURL.Scheme = "ws"
	}

	conn, _, _, err := dialer.Dial(ctx, parsedURL.String())
	if err != nil {
		return err
	}

	errCh := make(chan error)
	defer close(errCh)

	go func() {
		defer func() {
			recover()
		}()
		<-closeCh
		// best effort: tell the server we are done before dropping the conn
		if bStopMsg, err := json.Marshal(requests.ClientSubMsg{
			Type: requests.SubStop,
			ID:   "1",
		}); err == nil {
			wsutil.WriteClientText(conn, bStopMsg) //nolint:errcheck
		}
		if bTermMsg, err := json.Marshal(requests.ClientSubMsg{
			Type: requests.SubConnectionTerminate,
		}); err == nil {
			wsutil.WriteClientText(conn, bTermMsg) //nolint:errcheck
		}
		conn.Close()
	}()

	go func() {
		defer func() {
			defer func() {
				recover()
			}()
			conn.Close()
			// indicate that it's done
			resCh <- nil
		}()

		bInitMsg, err := json.Marshal(requests.ClientSubMsg{
			Type: requests.SubConnectionInit,
		})
		if err != nil {
			errCh <- err
			return
		}

		if err := wsutil.WriteClientText(conn, bInitMsg); err != nil {
			errCh <- err
			return
		}

		bRequestMsg, err := json.Marshal(requests.ClientSubMsg{
			Type:    requests.SubStart,
			ID:      "1",
			Payload: req,
		})
		if err != nil {
			errCh <- err
			return
		}

		if err := wsutil.WriteClientText(conn, bRequestMsg); err != nil {
			errCh <- err
			return
		}

		// init process is done
		errCh <- nil

		for {
			msg, err := wsutil.ReadServerText(conn)
			if err != nil {
				return
			}

			var serverResp requests.ServerSubMsg
			if err := json.Unmarshal(msg, &serverResp); err != nil {
				// try to unmarshal as error msg
				var serverErrorResp requests.ServerSubErrorMsg
				if innerErr := json.Unmarshal(msg, &serverErrorResp); innerErr != nil {
					return
				}
				resCh <- &requests.Response{
					Errors: serverErrorResp.Payload,
				}
				continue
			}

			switch serverResp.Type {
			case requests.SubComplete,
				requests.SubConnectionError,
				requests.SubConnectionTerminate,
				requests.SubError:
				return
			case requests.SubData:
				resCh <- serverResp.Payload
			}
		}
	}()

	if err := <-errCh; err != nil {
		return err
	}

	return nil
}
