package geo

import "math"

// EarthRadiusKm 地球平均半径（公里）
const EarthRadiusKm = 6371.0

// Point 经纬度坐标点
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Valid 检查坐标是否在合法范围内
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// DistanceKm 计算两点间的大圆距离（公里）
//
// 采用半角形式的 Haversine：
// d = 2R * asin(√(sin²(Δφ/2) + cosφ1*cosφ2*sin²(Δλ/2)))
// 球面余弦定理形式在近零距离处数值不稳定（同一点会算出非零距离），
// 半角形式没有这个问题；入参仍钳制到 [0, 1]，防止浮点溢出产生 NaN
func DistanceKm(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	deltaLat := radians(b.Lat - a.Lat)
	deltaLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(deltaLat / 2)
	sinLon := math.Sin(deltaLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(clamp(h, 0, 1)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
