// Package onbid is a client for the KAMCO Onbid public auction APIs. It
// covers the next-generation bid result services on apis.data.go.kr
// (JSON) and the ThingInfoInquireSvc and OnbidCodeInfoInquireSvc services
// on openapi.onbid.co.kr (XML). Records are returned as raw field maps
// since the APIs expose dozens of loosely documented fields.
package onbid
