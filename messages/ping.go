// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package messages

import "github.com/kangkot/tchannel/rw"

// PingReq and PingRes carry no payload: their body combinators read
// and write nothing.

type PingReq struct{}

func (PingReq) Type() Type             { return PingReqType }
func (PingReq) Fields() map[string]any { return map[string]any{} }

type PingRes struct{}

func (PingRes) Type() Type             { return PingResType }
func (PingRes) Fields() map[string]any { return map[string]any{} }

var pingReqRW = rw.Instance(func(map[string]any) any { return PingReq{} })
var pingResRW = rw.Instance(func(map[string]any) any { return PingRes{} })
