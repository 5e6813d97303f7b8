package msgx

import (
	"encoding/json"
	"regexp"

	"github.com/Abraxas-365/crmturbo/validatex"
)

// Action is one gateway operation the panel may request
type Action string

const (
	ActionCreateInstance            Action = "createInstance"
	ActionGetQRCode                 Action = "getQrCode"
	ActionGetInstanceStatus         Action = "getInstanceStatus"
	ActionFetchInstances            Action = "fetchInstances"
	ActionDeleteInstance            Action = "deleteInstance"
	ActionGetChats                  Action = "getChats"
	ActionGetMessages               Action = "getMessages"
	ActionGetBase64FromMediaMessage Action = "getBase64FromMediaMessage"
	ActionSendMessage               Action = "sendMessage"
	ActionGetProfilePic             Action = "getProfilePic"
	ActionFetchPresence             Action = "fetchPresence"
	ActionLogout                    Action = "logout"
)

// Actions is the allow-list, in documentation order
var Actions = []Action{
	ActionCreateInstance,
	ActionGetQRCode,
	ActionGetInstanceStatus,
	ActionFetchInstances,
	ActionDeleteInstance,
	ActionGetChats,
	ActionGetMessages,
	ActionGetBase64FromMediaMessage,
	ActionSendMessage,
	ActionGetProfilePic,
	ActionFetchPresence,
	ActionLogout,
}

func (a Action) Valid() bool {
	for _, allowed := range Actions {
		if a == allowed {
			return true
		}
	}
	return false
}

// DefaultInstance is used when a request names no instance
const DefaultInstance = "crm-turbo"

// InstancePattern is the only accepted shape for instance names
var InstancePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

func init() {
	validatex.RegisterPattern("instance", InstancePattern)
	validatex.RegisterValidationFunc("gateway_action", func(v any, _ string) bool {
		s, ok := v.(string)
		return ok && Action(s).Valid()
	})
}

// ValidInstanceName reports whether name matches InstancePattern
func ValidInstanceName(name string) bool {
	return InstancePattern.MatchString(name)
}

// Command is a validated request to the gateway
type Command struct {
	Action   Action         `json:"action"`
	Instance string         `json:"instanceName"`
	Data     map[string]any `json:"data,omitempty"`
}

type rawCommand struct {
	Action       any             `json:"action"`
	InstanceName any             `json:"instanceName"`
	Data         json.RawMessage `json:"data"`
}

type commandInput struct {
	Action   string `json:"action" validatex:"required,gateway_action"`
	Instance string `json:"instanceName" validatex:"required,pattern=instance"`
}

// ParseCommand decodes and validates a panel request body.
// An empty or omitted instanceName resolves to defaultInstance.
func ParseCommand(body []byte, defaultInstance string) (Command, error) {
	var raw rawCommand
	if err := json.Unmarshal(body, &raw); err != nil {
		return Command{}, Registry.NewWithCause(ErrInvalidJSON, err)
	}

	in := commandInput{Instance: defaultInstance}
	in.Action, _ = raw.Action.(string)
	switch name := raw.InstanceName.(type) {
	case nil:
	case string:
		if name != "" {
			in.Instance = name
		}
	default:
		// never matches the pattern
		in.Instance = "<invalid>"
	}

	if err := validatex.Validate(in); err != nil {
		failed := validatex.FailedFields(err)
		if len(failed) == 0 {
			return Command{}, err
		}
		// action is reported before instance
		if failed[0].Field == "action" {
			return Command{}, Registry.New(ErrInvalidAction).WithDetail("action", raw.Action)
		}
		return Command{}, Registry.New(ErrInvalidInstance).WithDetail("instanceName", in.Instance)
	}

	data := map[string]any{}
	if len(raw.Data) > 0 {
		// non-object data is ignored like a missing one
		_ = json.Unmarshal(raw.Data, &data)
		if data == nil {
			data = map[string]any{}
		}
	}
	return Command{Action: Action(in.Action), Instance: in.Instance, Data: data}, nil
}

// Value returns a field of Data exactly as the caller sent it
func (c Command) Value(key string) (any, bool) {
	v, ok := c.Data[key]
	return v, ok
}

// Pick copies the named fields that are present in Data, untouched.
// Absent fields are left out rather than sent as null.
func (c Command) Pick(keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := c.Data[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Bool reads a boolean field from Data
func (c Command) Bool(key string) bool {
	b, _ := c.Data[key].(bool)
	return b
}

// Int reads a numeric field from Data, falling back to def
func (c Command) Int(key string, def int) int {
	switch v := c.Data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}
