package sqlinline

const QInsertImageMedia = `--sql 7c6d5e4f-3a2b-4190-8e7f-6a5b4c3d2e1f
insert into media(
  id,
  prompt_id,
  owner_id,
  kind,
  external_url,
  owned_url,
  storage_key,
  mime,
  size,
  created_at
) values (
  gen_random_uuid(),
  $1::uuid,
  $2::uuid,
  'IMAGE',
  $3::text,
  $4::text,
  $5::text,
  $6::text,
  nullif($7::text, ''),
  now()
) returning id, created_at;
`

const QInsertVideoMedia = `--sql 1f2e3d4c-5b6a-4879-90ab-abcdef012345
insert into media(
  id,
  prompt_id,
  owner_id,
  kind,
  status,
  external_task_id,
  duration_seconds,
  mime,
  created_at
) values (
  gen_random_uuid(),
  $1::uuid,
  $2::uuid,
  'VIDEO',
  'QUEUED',
  $3::text,
  $4::int,
  'video/mp4',
  now()
) returning id, created_at;
`

const QSelectMediaForOwner = `--sql 9d8c7b6a-5f4e-4321-8a9b-0c1d2e3f4a5b
select id, prompt_id, owner_id, kind, coalesce(external_url, ''),
       coalesce(owned_url, ''), coalesce(storage_key, ''), coalesce(mime, ''),
       coalesce(size, ''), duration_seconds, coalesce(status, ''),
       coalesce(external_task_id, ''), coalesce(error_message, ''), created_at
from media
where id = $1::uuid and owner_id = $2::uuid
limit 1;
`

// Video rows only move forward: the guard refuses writes once the row has
// reached a terminal status, and owned_url is written at most once.
const QUpdateVideoMediaStatus = `--sql 2a3b4c5d-6e7f-4081-92a3-b4c5d6e7f809
update media
set status = $2::text,
    owned_url = coalesce(nullif($3::text, ''), owned_url),
    storage_key = coalesce(nullif($4::text, ''), storage_key),
    error_message = nullif($5::text, ''),
    external_url = coalesce(nullif($6::text, ''), external_url)
where id = $1::uuid
  and status in ('QUEUED', 'RUNNING')
returning status;
`
