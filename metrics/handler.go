// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes the package's counters/histograms on the default
// Prometheus registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
