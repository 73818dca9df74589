package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"ffglitch/internal/document"
)

// Handshake is shared by ffglitch and transform plugin binaries.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "FFGLITCH_PLUGIN",
	MagicCookieValue: "transform",
}

const pluginName = "transform"

// Info describes a plugin transform.
type Info struct {
	Name     string
	Features []string
}

// FrameRequest is sent to the plugin once per frame. Frame carries the
// frame's other keys; the stream is identified by index only.
type FrameRequest struct {
	Feature     string
	StreamIndex int
	FrameIndex  int
	Payload     []byte
	Frame       map[string][]byte
}

// FrameResponse carries the edited payload back to ffglitch.
type FrameResponse struct {
	Payload []byte
}

// Serve runs impl as a transform plugin. It is the entire main function of a
// plugin binary and only returns when the host disconnects.
func Serve(info Info, impl Transform) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         pluginSet(info, impl),
	})
}

func pluginSet(info Info, impl Transform) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		pluginName: &transformPlugin{Impl: impl, Info: info},
	}
}

// transformPlugin implements plugin.Plugin for the net/rpc transport.
type transformPlugin struct {
	Impl Transform
	Info Info
}

func (p *transformPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl, info: p.Info}, nil
}

func (p *transformPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcClient{client: c}, nil
}

// rpcServer runs inside the plugin process.
type rpcServer struct {
	impl Transform
	info Info
}

func (s *rpcServer) Describe(_ interface{}, resp *Info) error {
	*resp = s.info
	return nil
}

func (s *rpcServer) TransformFrame(req FrameRequest, resp *FrameResponse) error {
	payload, err := document.DecodePayload(req.Feature, req.Payload)
	if err != nil {
		return err
	}
	frame := make(document.Frame, len(req.Frame)+1)
	for key, raw := range req.Frame {
		frame[key] = json.RawMessage(raw)
	}
	frame[req.Feature] = json.RawMessage(req.Payload)

	fc := FrameContext{
		Feature:     req.Feature,
		StreamIndex: req.StreamIndex,
		FrameIndex:  req.FrameIndex,
		Frame:       frame,
	}
	if err := invoke(context.Background(), s.impl, payload, fc); err != nil {
		return err
	}
	out, err := document.EncodePayload(payload)
	if err != nil {
		return err
	}
	resp.Payload = out
	return nil
}

// rpcClient is the host-side Transform backed by a plugin process.
type rpcClient struct {
	client *rpc.Client
}

func (c *rpcClient) Describe() (Info, error) {
	var info Info
	if err := c.client.Call("Plugin.Describe", new(interface{}), &info); err != nil {
		return Info{}, err
	}
	return info, nil
}

func (c *rpcClient) TransformFrame(ctx context.Context, payload document.Payload, fc FrameContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := document.EncodePayload(payload)
	if err != nil {
		return err
	}
	req := FrameRequest{
		Feature:     fc.Feature,
		StreamIndex: fc.StreamIndex,
		FrameIndex:  fc.FrameIndex,
		Payload:     raw,
		Frame:       make(map[string][]byte, len(fc.Frame)),
	}
	for key, value := range fc.Frame {
		if key == fc.Feature {
			continue
		}
		req.Frame[key] = value
	}

	var resp FrameResponse
	if err := c.client.Call("Plugin.TransformFrame", req, &resp); err != nil {
		return fmt.Errorf("plugin: %w", err)
	}
	return payload.UnmarshalJSON(resp.Payload)
}
