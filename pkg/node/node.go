// Package node runs the Pollinations operations for a batch of input items.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/new-xmon-df/pollinations-go/pkg/apierrors"
	"github.com/new-xmon-df/pollinations-go/pkg/pollinations"
)

// Name is reported on every OperationError.
const Name = "Pollinations"

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// API is the part of the Pollinations client the node needs.
type API interface {
	URL(path, segment string, query *pollinations.Query) string
	Get(ctx context.Context, fullURL string) (*pollinations.Response, error)
	Balance(ctx context.Context) (*pollinations.Balance, error)
}

// Node executes operations against the API. Items are processed one after
// another and the output keeps the input order.
type Node struct {
	API API

	// ContinueOnFail turns item failures into {"error": msg} items.
	ContinueOnFail bool

	now func() time.Time
}

// New creates a new Node.
func New(api API) *Node {
	return &Node{API: api, now: time.Now}
}

// Run resolves the operation and per-item parameters from src and executes
// them.
func (n *Node) Run(ctx context.Context, src ParameterSource) ([]Item, error) {
	op, err := OperationFrom(src)
	if err != nil {
		return nil, apierrors.New(Name, 0, "%s", err.Error())
	}
	if op == OpGetBalance {
		return n.getBalance(ctx)
	}
	return n.each(ctx, op, src.ItemCount(), func(i int) (Request, error) {
		return ResolveRequest(src, op, i)
	})
}

// Execute runs op once per request.
func (n *Node) Execute(ctx context.Context, op Operation, reqs []Request) ([]Item, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("unknown operation: %s", op)
	}
	if op == OpGetBalance {
		return n.getBalance(ctx)
	}
	return n.each(ctx, op, len(reqs), func(i int) (Request, error) {
		return reqs[i], nil
	})
}

func (n *Node) each(ctx context.Context, op Operation, count int, request func(int) (Request, error)) ([]Item, error) {
	spec := operations[op]
	items := make([]Item, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		item, err := n.runItem(ctx, spec, i, request)
		if err != nil {
			if !n.ContinueOnFail {
				return items, err
			}
			log.WithFields(log.Fields{"operation": op, "item": i}).Warnf("item failed: %v", err)
			items = append(items, errorItem(err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (n *Node) runItem(ctx context.Context, spec *operationSpec, i int, request func(int) (Request, error)) (Item, error) {
	req, err := request(i)
	if err != nil {
		return Item{}, apierrors.New(Name, i, "%s", err.Error())
	}
	return n.runOperation(ctx, spec, req, i)
}

// getBalance issues a single balance request regardless of the item count.
func (n *Node) getBalance(ctx context.Context) ([]Item, error) {
	b, err := n.API.Balance(ctx)
	if err != nil {
		err = apierrors.Translate(err, Name, 0, apierrors.ContextBalance)
		if !n.ContinueOnFail {
			return nil, err
		}
		return []Item{errorItem(err)}, nil
	}
	return []Item{{JSON: b.Raw}}, nil
}

// checkMinimumBalance fails the item when the account holds less than
// minimum. A minimum of zero or less skips the lookup.
func (n *Node) checkMinimumBalance(ctx context.Context, minimum float64, i int) error {
	if minimum <= 0 {
		return nil
	}
	b, err := n.API.Balance(ctx)
	if err != nil {
		return apierrors.Translate(err, Name, i, apierrors.ContextBalance)
	}
	if b.Balance < minimum {
		return apierrors.New(Name, i, "Insufficient balance: %s pollens available, %s required",
			formatNumber(b.Balance), formatNumber(minimum))
	}
	return nil
}

// runOperation builds and sends the request of one generation operation and
// maps the answer into an Item.
func (n *Node) runOperation(ctx context.Context, spec *operationSpec, req Request, i int) (Item, error) {
	if spec.defaults != nil {
		spec.defaults(&req)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return Item{}, apierrors.New(Name, i, "Prompt is required")
	}
	if spec.validate != nil {
		if err := spec.validate(req); err != nil {
			return Item{}, apierrors.New(Name, i, "%s", err.Error())
		}
	}
	if err := n.checkMinimumBalance(ctx, req.Options.MinimumBalance, i); err != nil {
		return Item{}, err
	}

	fullURL := n.API.URL(spec.path, req.Prompt, spec.query(req))
	log.WithFields(log.Fields{"operation": spec.op, "item": i, "url": fullURL}).Debug("running operation")

	resp, err := n.API.Get(ctx, fullURL)
	if err != nil {
		return Item{}, apierrors.Translate(err, Name, i, spec.errContext)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = spec.contentType(req)
	}
	response := map[string]interface{}{
		"statusCode":  resp.StatusCode,
		"contentType": contentType,
		"duration":    fmt.Sprintf("%dms", resp.Duration.Milliseconds()),
	}

	metadata := map[string]interface{}{
		"request":   spec.echo(fullURL, req),
		"response":  response,
		"timestamp": n.timestamp(),
	}

	if spec.kind == responseText {
		metadata["text"] = textPayload(resp.Body, req.Options.JSONMode)
		return Item{JSON: metadata}, nil
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		response["contentLength"] = cl
	} else {
		response["contentLength"] = nil
	}
	fileName, mimeType := spec.attachment(req)
	return Item{JSON: metadata, Binary: NewBinaryData(resp.Body, fileName, mimeType)}, nil
}

// textPayload returns the body, or its parsed JSON value in jsonMode.
func textPayload(body []byte, jsonMode bool) interface{} {
	text := string(body)
	if !jsonMode {
		return text
	}
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed == nil {
		return text
	}
	return parsed
}

func (n *Node) timestamp() string {
	now := time.Now
	if n.now != nil {
		now = n.now
	}
	return now().UTC().Format(timestampLayout)
}
