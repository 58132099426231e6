/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mumble

import (
	"fmt"
	"io"
	"os"
)

// WriteLinkDetail prints the fields of a region image to w.
func WriteLinkDetail(w io.Writer, mem []byte) error {
	snap, err := Decode(mem)
	if err != nil {
		return err
	}
	ctx := snap.Context
	if _, err := fmt.Fprintf(w, "version:%d tick:%d name:%q context_len:%d\n",
		snap.UIVersion, snap.UITick, snap.NameString(), snap.ContextLen); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "avatar:%v camera:%v\n", snap.Avatar.Position, snap.Camera.Position); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "map:%d type:%d shard:%d instance:%d build:%d pid:%d mount:%s ui:%s\n",
		ctx.MapID, ctx.MapType, ctx.ShardID, ctx.Instance, ctx.BuildID, ctx.ProcessID, ctx.Mount, ctx.UIState); err != nil {
		return err
	}
	if addr, aerr := ctx.ServerAddrPort(); aerr == nil {
		if _, err := fmt.Fprintf(w, "server:%s\n", addr); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "identity:%s\n", snap.IdentityString())
	return err
}

// DebugLinkDetail prints the link region image stored at `path`, e.g. /dev/shm/MumbleLink.
func DebugLinkDetail(path string) {
	mem, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("path:%s size:%d\n", path, len(mem))
	if err := WriteLinkDetail(os.Stdout, mem); err != nil {
		fmt.Println(err)
	}
}
