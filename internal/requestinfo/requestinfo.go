//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight per-request metadata: client IP, best-effort country, and
//  a crawler flag.  The struct is inert.  It contains no pointers to
//  database handles or large buffers, so it is safe to log or JSON-encode.
//
//  The catalog records the IP on anonymous submissions and contact
//  messages (it feeds the per-IP hourly ceiling), the country enriches
//  those rows for the admin back office, and the crawler flag keeps bots
//  out of the view counters.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing, ~18 000 bot signatures)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup)
//

package requestinfo

import (
	"context"
	"net"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"

	"github.com/rigazamy/apikit/internal/cache"
)

// Info is attached to the request context by the Enrich middleware.
type Info struct {
	IP        string    // left-most public client address, empty if unparseable
	Country   string    // ISO code ("US", "FR", …), empty without a Geo DB
	Bot       bool      // true when the UA matches a known crawler signature
	Timestamp time.Time // UTC arrival time
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is a singleton MaxMind handle.  It is safe for concurrent
// reads, which is all we ever perform.  nil when geolocation is disabled.
var geoReader *geoip2.Reader

// geoCache memoises IP → country so a chatty client costs one MaxMind
// read instead of one per request.
var geoCache = cache.New(4096)

// InitGeo opens the GeoLite2 database at dbPath.  An empty path disables
// geolocation; lookups then return "" and everything else keeps working.
func InitGeo(dbPath string) error {
	if dbPath == "" {
		return nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoReader = r
	return nil
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// isBot reports whether the raw User-Agent header matches a crawler.
func isBot(uaHeader string) bool {
	if uaHeader == "" {
		return false
	}
	return uasurfer.Parse(uaHeader).IsBot()
}

// lookupCountry resolves ip to an ISO country code, best effort.
func lookupCountry(ip net.IP) string {
	if geoReader == nil || ip == nil {
		return ""
	}

	key := ip.String()
	if v, ok := geoCache.Get(key); ok {
		return v.(string)
	}

	rec, err := geoReader.Country(ip)
	if err != nil || rec == nil {
		return ""
	}
	geoCache.Add(key, rec.Country.IsoCode)
	return rec.Country.IsoCode
}
