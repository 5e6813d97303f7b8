package msgxevolution

import (
	"net/http"

	"github.com/Abraxas-365/crmturbo/msgx"
)

// route describes how one action maps onto the gateway REST API
type route struct {
	method string
	// path gets the instance name appended when perInstance is set
	path        string
	perInstance bool
	body        func(cmd msgx.Command, cfg Config) any
}

const defaultMessageLimit = 50

var routes = map[msgx.Action]route{
	msgx.ActionCreateInstance: {
		method: http.MethodPost,
		path:   "/instance/create",
		body:   createInstanceBody,
	},
	msgx.ActionGetQRCode:         {method: http.MethodGet, path: "/instance/connect/", perInstance: true},
	msgx.ActionGetInstanceStatus: {method: http.MethodGet, path: "/instance/connectionState/", perInstance: true},
	msgx.ActionFetchInstances:    {method: http.MethodGet, path: "/instance/fetchInstances"},
	msgx.ActionDeleteInstance:    {method: http.MethodDelete, path: "/instance/delete/", perInstance: true},
	msgx.ActionLogout:            {method: http.MethodDelete, path: "/instance/logout/", perInstance: true},
	msgx.ActionGetChats: {
		method:      http.MethodPost,
		path:        "/chat/findChats/",
		perInstance: true,
		body:        func(msgx.Command, Config) any { return map[string]any{} },
	},
	msgx.ActionGetMessages: {
		method:      http.MethodPost,
		path:        "/chat/findMessages/",
		perInstance: true,
		body: func(cmd msgx.Command, _ Config) any {
			return map[string]any{
				"where": map[string]any{
					"key": cmd.Pick("remoteJid"),
				},
				"limit": cmd.Int("limit", defaultMessageLimit),
			}
		},
	},
	msgx.ActionGetBase64FromMediaMessage: {
		method:      http.MethodPost,
		path:        "/chat/getBase64FromMediaMessage/",
		perInstance: true,
		body: func(cmd msgx.Command, _ Config) any {
			return map[string]any{
				"message":      map[string]any{"key": messageKey(cmd)},
				"convertToMp4": cmd.Bool("convertToMp4"),
			}
		},
	},
	msgx.ActionSendMessage: {
		method:      http.MethodPost,
		path:        "/message/sendText/",
		perInstance: true,
		body: func(cmd msgx.Command, _ Config) any {
			return cmd.Pick("number", "text")
		},
	},
	msgx.ActionGetProfilePic: {
		method:      http.MethodPost,
		path:        "/chat/fetchProfilePictureUrl/",
		perInstance: true,
		body:        numberBody,
	},
	msgx.ActionFetchPresence: {
		method:      http.MethodPost,
		path:        "/chat/fetchPresence/",
		perInstance: true,
		body:        numberBody,
	},
}

func numberBody(cmd msgx.Command, _ Config) any {
	return cmd.Pick("number")
}

func messageKey(cmd msgx.Command) map[string]any {
	key := map[string]any{}
	if id, ok := cmd.Value("messageId"); ok {
		key["id"] = id
	}
	return key
}

func createInstanceBody(cmd msgx.Command, cfg Config) any {
	body := map[string]any{
		"instanceName": cmd.Instance,
		"qrcode":       true,
		"integration":  "WHATSAPP-BAILEYS",
	}
	if cfg.WebhookURL != "" {
		hook := map[string]any{
			"url":      cfg.WebhookURL,
			"byEvents": false,
			"base64":   false,
			"events":   []string{"MESSAGES_UPSERT"},
		}
		if cfg.WebhookSecret != "" {
			hook["headers"] = map[string]string{WebhookSecretHeader: cfg.WebhookSecret}
		}
		body["webhook"] = hook
	}
	return body
}
