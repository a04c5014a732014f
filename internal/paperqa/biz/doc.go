// Package biz implements the business logic behind the paperqa API: articles,
// question answering, reports, summaries and accounts.
package biz
