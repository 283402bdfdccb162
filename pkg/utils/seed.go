// Package utils はシード値の変換など、パッケージをまたいで使う小さな補助関数です。
package utils

// SeedToPtrInt32 は domain の *int64 を SDK 用の *int32 に変換します。
// 範囲外の値は上位ビットが切り捨てられますが、同じ入力には同じ値を返します。
func SeedToPtrInt32(seed *int64) *int32 {
	if seed == nil {
		return nil
	}
	v := int32(*seed)
	return &v
}

// VariantSeed は i 番目のバリエーション用のシードを返します。nil はランダムのままです。
func VariantSeed(seed *int64, i int) *int64 {
	if seed == nil {
		return nil
	}
	v := *seed + int64(i)
	return &v
}
