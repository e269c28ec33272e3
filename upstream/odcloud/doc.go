// Package odcloud is a client for the odcloud.kr open data APIs serving
// Applyhome (청약홈) apartment subscription data: notice metadata and the
// ApplyhomeStatSvc statistics endpoints for applicants, winners, competition
// rates and score-based winners.
package odcloud
