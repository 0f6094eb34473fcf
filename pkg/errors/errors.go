package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrExclusionConflict 数据库排他约束冲突：同一房间的预约时间段重叠
var ErrExclusionConflict = errors.New("时间段与已有预约冲突")
