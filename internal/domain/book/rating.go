package book

import "math"

// AverageRating 计算平均评分,保留2位小数(恰好为一半时取偶数,1.125 → 1.12)
// 没有评分时返回nil
func AverageRating(ratings []int) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := math.RoundToEven(float64(sum)/float64(len(ratings))*100) / 100
	return &avg
}

func reviewRatings(reviews []*Review) []int {
	ratings := make([]int, len(reviews))
	for i, r := range reviews {
		ratings[i] = r.Rating
	}
	return ratings
}
