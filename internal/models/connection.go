// Package models defines the core data structures shared by the console.
// It includes graph entities, filters, stats and the upstream API records.
package models

import (
	"net/url"
	"strconv"
)

type AuthenticationType string

const (
	AuthDirect   AuthenticationType = "DIRECT"
	AuthKerberos AuthenticationType = "KERBEROS"
)

// Connection is an onboarded Oracle connection as listed by the onboarding
// service.
type Connection struct {
	ID                 string             `json:"id"`
	ConnectionName     string             `json:"connectionName"`
	Description        string             `json:"description,omitempty"`
	Host               string             `json:"host"`
	Port               int                `json:"port"`
	ServiceName        string             `json:"serviceName"`
	AuthenticationType AuthenticationType `json:"authenticationType"`
	Username           string             `json:"username,omitempty"`
	Status             string             `json:"status"`
	CreatedAt          string             `json:"createdAt"`
	UpdatedAt          string             `json:"updatedAt"`
	LastTestedAt       string             `json:"lastTestedAt,omitempty"`
	LastTestResult     string             `json:"lastTestResult,omitempty"`
}

type ConnectionTestResult struct {
	ConnectionValid bool   `json:"connectionValid"`
	ConnectionID    string `json:"connectionId"`
	TestedAt        string `json:"testedAt"`
}

// ConnectionConfig is the credential body the discovery service expects on
// graph requests.
type ConnectionConfig struct {
	ConnectionID       string             `json:"connectionId" validate:"required"`
	Host               string             `json:"host" validate:"required"`
	Port               int                `json:"port" validate:"required,min=1,max=65535"`
	ServiceName        string             `json:"serviceName" validate:"required"`
	Username           string             `json:"username"`
	Password           string             `json:"password"`
	AuthenticationType AuthenticationType `json:"authenticationType" validate:"required,oneof=DIRECT KERBEROS"`
}

// ConfigFor builds the discovery credential body from a listed connection.
// The password is supplied by the caller.
func ConfigFor(c Connection, password string) ConnectionConfig {
	auth := c.AuthenticationType
	if auth == "" {
		auth = AuthDirect
	}
	return ConnectionConfig{
		ConnectionID:       c.ID,
		Host:               c.Host,
		Port:               c.Port,
		ServiceName:        c.ServiceName,
		Username:           c.Username,
		Password:           password,
		AuthenticationType: auth,
	}
}

// GraphQuery selects what the discovery service includes in a schema graph.
type GraphQuery struct {
	Schemas            []string `json:"schemas,omitempty"`
	TablePatterns      []string `json:"tablePatterns,omitempty"`
	TableTypes         []string `json:"tableTypes,omitempty"`
	IncludeTables      bool     `json:"includeTables"`
	IncludeColumns     bool     `json:"includeColumns"`
	IncludeProcedures  bool     `json:"includeProcedures"`
	IncludeConstraints bool     `json:"includeConstraints"`
	Limit              int      `json:"limit"`
	Offset             int      `json:"offset"`
}

func DefaultGraphQuery() GraphQuery {
	return GraphQuery{
		IncludeTables:      true,
		IncludeColumns:     true,
		IncludeProcedures:  true,
		IncludeConstraints: true,
		Limit:              1000,
	}
}

// Values encodes the query the way the discovery service reads it: repeated
// keys for list filters, explicit booleans, limit and offset.
func (q GraphQuery) Values() url.Values {
	v := url.Values{}
	for _, s := range q.Schemas {
		v.Add("schemas", s)
	}
	for _, p := range q.TablePatterns {
		v.Add("tablePatterns", p)
	}
	for _, t := range q.TableTypes {
		v.Add("tableTypes", t)
	}
	v.Set("includeTables", strconv.FormatBool(q.IncludeTables))
	v.Set("includeColumns", strconv.FormatBool(q.IncludeColumns))
	v.Set("includeProcedures", strconv.FormatBool(q.IncludeProcedures))
	v.Set("includeConstraints", strconv.FormatBool(q.IncludeConstraints))
	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(max(q.Offset, 0)))
	return v
}
