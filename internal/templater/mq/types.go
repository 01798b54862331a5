package mq

import (
	"github.com/geoirb/sheetbind/internal/schema"
)

type request struct {
	UserID   int         `json:"user_id"`
	UUID     string      `json:"uuid"`
	Template string      `json:"template"`
	Payload  interface{} `json:"payload"`
}

type exportRequest struct {
	UserID  int             `json:"user_id"`
	UUID    string          `json:"uuid"`
	Shape   string          `json:"shape"`
	Sheet   string          `json:"sheet"`
	Type    string          `json:"type"`
	Records []schema.Record `json:"records"`
}

type importRequest struct {
	UserID   int      `json:"user_id"`
	UUID     string   `json:"uuid"`
	Shape    string   `json:"shape"`
	Sheets   []string `json:"sheets"`
	HeadRows int      `json:"head_rows"`
	Type     string   `json:"type"`
	Document []byte   `json:"document"`
}

type record struct {
	Sheet  string        `json:"sheet"`
	Row    int           `json:"row"`
	Values schema.Record `json:"values"`
}

type importResponse struct {
	UUID     string   `json:"uuid"`
	UserID   int      `json:"user_id"`
	Records  []record `json:"records,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Message  string   `json:"message,omitempty"`
}

type response struct {
	UUID     string   `json:"uuid"`
	UserID   int      `json:"user_id"`
	Document []byte   `json:"document,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Message  string   `json:"message,omitempty"`
}
