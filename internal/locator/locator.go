// Package locator computes a 6-character Maidenhead grid locator from a
// latitude/longitude pair, a direct port of the gateway's own
// calculateLocator() used to populate FCS station metadata.
package locator

import "math"

// Calculate returns the 6-character Maidenhead locator for lat/lon, or
// "AA00AA" if either coordinate is out of range.
func Calculate(latitude, longitude float64) string {
	if latitude < -90.0 || latitude > 90.0 {
		return "AA00AA"
	}
	if longitude < -360.0 || longitude > 360.0 {
		return "AA00AA"
	}

	latitude += 90.0

	if longitude > 180.0 {
		longitude -= 360.0
	}
	if longitude < -180.0 {
		longitude += 360.0
	}
	longitude += 180.0

	lon := math.Floor(longitude / 20.0)
	lat := math.Floor(latitude / 10.0)

	buf := make([]byte, 0, 6)
	buf = append(buf, 'A'+byte(lon), 'A'+byte(lat))

	longitude -= lon * 20.0
	latitude -= lat * 10.0

	lon = math.Floor(longitude / 2.0)
	lat = math.Floor(latitude / 1.0)

	buf = append(buf, '0'+byte(lon), '0'+byte(lat))

	longitude -= lon * 2.0
	latitude -= lat * 1.0

	lon = math.Floor(longitude / (2.0 / 24.0))
	lat = math.Floor(latitude / (1.0 / 24.0))

	buf = append(buf, 'A'+byte(lon), 'A'+byte(lat))

	return string(buf)
}
